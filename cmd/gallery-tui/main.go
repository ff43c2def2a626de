// Command gallery-tui is a terminal client for the gallery API. It renders
// the product grid and the popup surfaces driven by the popup controller;
// all transition logic lives in the controller, the TUI is a projection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/asaskevich/EventBus"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/openmerch/gallery/internal/domain"
	"github.com/openmerch/gallery/internal/popup"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selected    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	popupStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

type productsMsg struct {
	products []domain.Product
	err      error
}

type controllerDoneMsg struct{ err error }

type notifyMsg popup.Notification

type clearNotifyMsg struct{}

type model struct {
	ctx     context.Context
	client  *popup.Client
	ctrl    *popup.Controller
	notices chan popup.Notification

	products []domain.Product
	cursor   int
	imageIdx int

	notification string
	notifyLevel  string
	err          error
	width        int
	height       int
}

func newModel(ctx context.Context, base string) model {
	client := popup.NewClient(base)
	bus := EventBus.New()
	notices := make(chan popup.Notification, 16)
	_ = bus.Subscribe(popup.TopicNotify, func(n popup.Notification) {
		select {
		case notices <- n:
		default:
		}
	})
	return model{
		ctx:     ctx,
		client:  client,
		ctrl:    popup.NewController(client, bus),
		notices: notices,
	}
}

func (m model) fetchProducts() tea.Cmd {
	return func() tea.Msg {
		products, err := m.client.Products(m.ctx)
		return productsMsg{products: products, err: err}
	}
}

// runCtrl executes a controller action off the UI goroutine and reports
// completion so the view re-renders from fresh state.
func runCtrl(action func() error) tea.Cmd {
	return func() tea.Msg {
		return controllerDoneMsg{err: action()}
	}
}

func (m model) waitNotice() tea.Cmd {
	return func() tea.Msg {
		return notifyMsg(<-m.notices)
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, m.fetchProducts(), m.waitNotice())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case productsMsg:
		m.products = msg.products
		m.err = msg.err
		return m, nil

	case controllerDoneMsg:
		// Errors already surfaced via the notification bus.
		return m, nil

	case notifyMsg:
		m.notification = msg.Title + ": " + msg.Message
		m.notifyLevel = msg.Level
		return m, tea.Batch(m.waitNotice(), tea.Tick(3*time.Second, func(time.Time) tea.Msg {
			return clearNotifyMsg{}
		}))

	case clearNotifyMsg:
		m.notification = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.ctrl.State()

	switch msg.String() {
	case "ctrl+c", "q":
		if st.Kind == popup.KindNone {
			return m, tea.Quit
		}
		m.ctrl.Close()
		return m, nil

	case "esc":
		// Close is synchronous regardless of in-flight requests.
		m.ctrl.Close()
		return m, nil
	}

	switch st.Kind {
	case popup.KindNone:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.products)-1 {
				m.cursor++
			}
		case "r":
			return m, m.fetchProducts()
		case "enter":
			if m.cursor < len(m.products) {
				id := m.products[m.cursor].ID
				return m, runCtrl(func() error { return m.ctrl.OpenProduct(m.ctx, id) })
			}
		}

	case popup.KindProductEdit:
		if msg.String() == "g" {
			return m, runCtrl(func() error { return m.ctrl.ViewAllImages(m.ctx) })
		}

	case popup.KindGalleryGrid:
		switch msg.String() {
		case "left", "h":
			if m.imageIdx > 0 {
				m.imageIdx--
			}
		case "right", "l":
			if st.Gallery != nil && m.imageIdx < len(st.Gallery.Images)-1 {
				m.imageIdx++
			}
		case "enter":
			if st.Gallery != nil && m.imageIdx < len(st.Gallery.Images) {
				id := st.Gallery.Images[m.imageIdx].ID
				return m, runCtrl(func() error { return m.ctrl.OpenImage(m.ctx, id) })
			}
		case "a":
			_ = m.ctrl.OpenUpload()
		}

	case popup.KindImageDetail:
		switch msg.String() {
		case "b":
			return m, runCtrl(func() error { return m.ctrl.BackToGallery(m.ctx) })
		case "p":
			if st.Image != nil {
				yes := true
				req := domain.SaveRequest{ImageChanges: map[string]domain.ImageChanges{
					fmt.Sprintf("%d", st.Image.ImageId): {IsPrimary: &yes},
				}}
				return m, runCtrl(func() error { return m.ctrl.Save(m.ctx, req) })
			}
		}

	case popup.KindUploadPanel:
		if msg.String() == "c" {
			_ = m.ctrl.CancelUpload()
		}
	}
	return m, nil
}

func (m model) View() string {
	var body string
	st := m.ctrl.State()

	switch st.Kind {
	case popup.KindNone:
		body = m.renderGrid()
	default:
		body = m.renderPopup(st)
	}

	footer := dimStyle.Render("q quit · enter open · esc close")
	if m.notification != "" {
		style := noticeStyle
		if m.notifyLevel == "error" {
			style = errorStyle
		}
		footer = style.Render(m.notification)
	}
	return lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("Product Gallery"), body, footer)
}

func (m model) renderGrid() string {
	if m.err != nil {
		return errorStyle.Render("failed to load products: " + m.err.Error())
	}
	if len(m.products) == 0 {
		return dimStyle.Render("no products")
	}
	rows := make([]string, 0, len(m.products))
	for i, p := range m.products {
		line := fmt.Sprintf("%-24s $%.2f", p.Name, p.Price)
		if i == m.cursor {
			line = selected.Render(line)
		}
		rows = append(rows, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m model) renderPopup(st popup.State) string {
	header := st.Kind.String()
	if st.Phase == popup.PhaseLoading {
		return popupStyle.Render(header + "\n\n" + dimStyle.Render("loading..."))
	}

	var lines []string
	switch st.Kind {
	case popup.KindProductEdit:
		if st.Product != nil {
			lines = append(lines,
				titleStyle.Render(st.Product.Title),
				st.Product.Description,
				fmt.Sprintf("$%.2f", st.Product.Price),
				dimStyle.Render(st.Product.ImageUrl),
				"",
				dimStyle.Render("g view all images"),
			)
		}
	case popup.KindGalleryGrid:
		if st.Gallery != nil {
			for i, img := range st.Gallery.Images {
				marker := "  "
				if img.IsPrimary {
					marker = "* "
				}
				line := fmt.Sprintf("%s%s (%s)", marker, img.Url, img.ImageType)
				if i == m.imageIdx {
					line = selected.Render(line)
				}
				lines = append(lines, line)
			}
			lines = append(lines, "", dimStyle.Render("enter detail · a add image"))
		}
	case popup.KindImageDetail:
		if st.Image != nil {
			lines = append(lines,
				titleStyle.Render(st.Image.Title),
				st.Image.ImageUrl,
				"type: "+st.Image.ImageType,
				fmt.Sprintf("primary: %t", st.Image.IsPrimary),
				"",
				dimStyle.Render("b back · p make primary"),
			)
		}
	case popup.KindUploadPanel:
		lines = append(lines, "upload panel", dimStyle.Render("c cancel"))
	}
	return popupStyle.Render(header + "\n\n" + lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func main() {
	base := flag.String("server", "http://127.0.0.1:1979", "gallery server base url")
	flag.Parse()

	m := newModel(context.Background(), *base)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "gallery-tui: %v\n", err)
		os.Exit(1)
	}
}
