package domain

var Tables = []interface{}{
	&Product{},
	&ProductImage{},
}
