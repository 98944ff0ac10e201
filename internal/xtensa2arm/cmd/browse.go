package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/v2/list"
	"github.com/charmbracelet/bubbles/v2/spinner"
	"github.com/charmbracelet/bubbles/v2/viewport"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"

	"xtensa2arm/internal/asm"
	"xtensa2arm/internal/config"
	"xtensa2arm/internal/render"
	"xtensa2arm/internal/session"
	"xtensa2arm/internal/symbols"
	"xtensa2arm/internal/translate"
	"xtensa2arm/internal/ui/colorize"
	"xtensa2arm/internal/xtensa2arm/styles"
)

var browseCmd = &cobra.Command{
	Use:   "browse <input>",
	Short: "Browse functions and their ARM translation interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		sess, err := openSession(ctx, cmd, cfg, args[0])
		if err != nil {
			return err
		}
		defer sess.Close()

		program := tea.NewProgram(
			newBrowser(ctx, args[0], sess, cfg),
			tea.WithAltScreen(),
			tea.WithContext(ctx),
		)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

type viewMode int

const (
	viewFunctions viewMode = iota
	viewListing
)

type functionItem struct {
	object    symbols.Object
	demangled string
}

func (i functionItem) Title() string       { return fmt.Sprintf("%08x  %s", i.object.Address, i.demangled) }
func (i functionItem) Description() string { return "" }
func (i functionItem) FilterValue() string {
	return fmt.Sprintf("%x %s %s", i.object.Address, i.object.Name, i.demangled)
}

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(functionItem)
	if !ok {
		return
	}
	indicator, name := " ", i.demangled
	if index == m.Index() {
		indicator, name = ">", styles.Selected.Render(i.demangled)
	}
	fmt.Fprintf(w, " %s  %s  %s", indicator, styles.Address.Render(fmt.Sprintf("%08x", i.object.Address)), name)
}

type tableMsg struct {
	table *symbols.Table
	err   error
}

type translatedMsg struct {
	object symbols.Object
	source asm.Function
	result asm.Function
	err    error
}

type browser struct {
	ctx        context.Context
	input      string
	sess       session.Session
	cfg        config.Config
	table      *symbols.Table
	translator *translate.Translator

	functions list.Model
	listing   viewport.Model
	spinner   spinner.Model
	mode      viewMode

	loading     bool
	translating string
	loadErr     error
	width       int
	height      int
}

func newBrowser(ctx context.Context, input string, sess session.Session, cfg config.Config) browser {
	vp := viewport.New()
	vp.SetWidth(80)
	vp.SetHeight(24)

	functions := list.New([]list.Item{}, itemDelegate{}, 80, 24)
	functions.SetShowStatusBar(false)
	functions.SetFilteringEnabled(true)
	functions.SetShowHelp(true)
	functions.Title = "Functions"
	functions.Styles.Title = styles.Title

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	b := browser{
		ctx:       ctx,
		input:     input,
		sess:      sess,
		cfg:       cfg,
		functions: functions,
		listing:   vp,
		spinner:   s,
		mode:      viewFunctions,
		loading:   true,
		width:     80,
		height:    24,
	}
	b.setHeader()
	return b
}

func (b browser) Init() tea.Cmd {
	return tea.Batch(loadTableCmd(b.ctx, b.sess), b.spinner.Tick)
}

func loadTableCmd(ctx context.Context, sess session.Session) tea.Cmd {
	return func() tea.Msg {
		t, err := session.Table(ctx, sess)
		return tableMsg{table: t, err: err}
	}
}

func translateFunctionCmd(ctx context.Context, sess session.Session, tr *translate.Translator, obj symbols.Object) tea.Cmd {
	return func() tea.Msg {
		src, err := sess.FunctionListing(ctx, obj.Name)
		if err != nil {
			return translatedMsg{object: obj, err: err}
		}
		out, err := tr.Translate(ctx, src)
		return translatedMsg{object: obj, source: src, result: out, err: err}
	}
}

func (b browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tableMsg:
		b.loading = false
		b.loadErr = msg.err
		if msg.err == nil {
			b.setTable(msg.table)
		}
		b.setHeader()
		return b, nil

	case translatedMsg:
		b.translating = ""
		b.showTranslation(msg)
		b.mode = viewListing
		return b, nil

	case spinner.TickMsg:
		b.spinner, cmd = b.spinner.Update(msg)
		if b.loading || b.translating != "" {
			if b.loading {
				b.setHeader()
			}
			return b, cmd
		}
		return b, nil

	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
		b.listing.SetWidth(msg.Width)
		b.listing.SetHeight(msg.Height - 2)
		b.functions.SetWidth(msg.Width)
		b.functions.SetHeight(msg.Height - 2)

	case tea.KeyMsg:
		filtering := b.mode == viewFunctions && b.functions.FilterState() == list.Filtering
		switch msg.String() {
		case "ctrl+c":
			return b, tea.Quit
		case "q":
			if !filtering {
				return b, tea.Quit
			}
		case "tab", "esc":
			if !filtering && b.mode == viewListing {
				b.mode = viewFunctions
				return b, nil
			}
			if !filtering && msg.String() == "tab" && b.functions.SelectedItem() != nil {
				b.mode = viewListing
				return b, nil
			}
		case "enter":
			if !filtering && b.mode == viewFunctions {
				return b, b.startTranslation()
			}
		}
	}

	switch b.mode {
	case viewFunctions:
		b.functions, cmd = b.functions.Update(msg)
	default:
		b.listing, cmd = b.listing.Update(msg)
	}
	return b, cmd
}

func (b *browser) setTable(t *symbols.Table) {
	b.table = t
	b.translator = translate.New(t, b.sess, translate.WithLabelPrefix(b.cfg.LabelPrefix))

	funcs := t.Functions()
	items := make([]list.Item, 0, len(funcs))
	for _, o := range funcs {
		items = append(items, functionItem{object: o, demangled: o.DisplayName()})
	}
	b.functions.SetItems(items)
	b.functions.Title = fmt.Sprintf("Functions (%d)", len(items))
}

func (b *browser) startTranslation() tea.Cmd {
	if b.translator == nil || b.translating != "" {
		return nil
	}
	item, ok := b.functions.SelectedItem().(functionItem)
	if !ok {
		return nil
	}
	b.translating = item.object.Name
	return tea.Batch(translateFunctionCmd(b.ctx, b.sess, b.translator, item.object), b.spinner.Tick)
}

// setHeader fills the listing panel with the session summary.
func (b *browser) setHeader() {
	lines := []string{"; " + b.input}
	switch {
	case b.loading:
		lines = append(lines, "; reading symbols...")
	case b.loadErr != nil:
		lines = append(lines, "; "+b.loadErr.Error())
	case b.table != nil:
		lines = append(lines, fmt.Sprintf("; %d symbols, %d functions", b.table.Len(), len(b.table.Functions())))
	}
	md := fmt.Sprintf("# xtensa2arm\n\n```\n%s\n```", strings.Join(lines, "\n"))
	if b.loading {
		md += fmt.Sprintf("\n\n%s Loading symbols...", b.spinner.View())
	}
	b.listing.SetContent(strings.TrimSuffix(styles.RenderMarkdown(md, b.width-2), "\n"))
}

func (b *browser) showTranslation(msg translatedMsg) {
	name := msg.object.DisplayName()
	if msg.err != nil {
		md := fmt.Sprintf("# %s\n\n`%#08x`", name, msg.object.Address)
		b.listing.SetContent(styles.RenderMarkdown(md, b.width-2) + "\n" + styles.Error.Render(msg.err.Error()))
		b.listing.GotoTop()
		return
	}

	res := render.Summarize(msg.result)
	md := fmt.Sprintf("# %s\n\n`%#08x` · %d xtensa → %d arm · %d labels",
		name, msg.object.Address, res.Source, res.Emitted, res.Labels)
	text, err := render.Text(msg.result, render.Options{LabelPrefix: b.translator.LabelPrefix(), Source: &msg.source})
	if err != nil {
		text = styles.Error.Render(err.Error())
	} else {
		text = colorize.Assembly(text)
	}
	b.listing.SetContent(styles.RenderMarkdown(md, b.width-2) + "\n" + text)
	b.listing.GotoTop()
}

func (b browser) View() string {
	var content string
	switch b.mode {
	case viewListing:
		content = b.listing.View()
	default:
		if b.loading || b.table == nil {
			content = b.listing.View()
		} else {
			content = b.functions.View()
		}
	}

	var menu string
	switch {
	case b.translating != "":
		menu = fmt.Sprintf(" %s translating %s... ", b.spinner.View(), b.translating)
	case b.mode == viewListing:
		menu = " Tab/Esc: functions • ↑/↓: scroll • Q: quit "
	default:
		menu = " Enter: translate • /: filter • Tab: listing • Q: quit "
	}
	return content + "\n" + styles.Menu.Width(b.width).Render(menu)
}
