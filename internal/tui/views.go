package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/picky/internal/domain"
	"github.com/mmcdole/picky/internal/i18n"
	"github.com/mmcdole/picky/internal/stats"
	"github.com/mmcdole/picky/internal/tui/styles"
)

// View renders the UI
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.ShowHelp {
		return m.renderHelp()
	}
	if m.ConfirmEmpty {
		return m.renderEmptyConfirmation()
	}

	header := m.renderHeader()
	footer := m.renderFooter()
	bodyHeight := max(m.Height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	switch m.State {
	case StatePermission:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderPermission())
	case StateSwiping:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderCard())
	case StateAlbums:
		body = m.renderAlbums(bodyHeight)
	case StateTrash, StateFavorites:
		body = m.renderStaged(bodyHeight)
	case StateStats:
		body = lipgloss.Place(m.Width, bodyHeight, lipgloss.Center, lipgloss.Center, m.renderStats())
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// RenderSpinner renders the spinner frame
func RenderSpinner(frame int) string {
	return styles.SpinnerStyle.Render(styles.SpinnerFrames[frame%len(styles.SpinnerFrames)])
}

func (m Model) formatSize(bytes int64) string {
	return stats.FormatMB(bytes, m.svc.Language)
}

func (m Model) renderHeader() string {
	left := styles.BadgeStyle.Render("picky")

	var title string
	switch m.State {
	case StateAlbums:
		title = "Albums"
	case StateTrash:
		title = "Trash"
	case StateFavorites:
		title = "Favorites"
	case StateStats:
		title = "Statistics"
	case StateSwiping:
		title = m.Selector.Title
		if m.Selector.IsAll() {
			title = m.printer.Sprintf(i18n.MsgAllMedia)
		}
	}
	left += " " + styles.TitleStyle.Render(title)

	var right string
	if m.State == StateSwiping && m.Summary == "" {
		if p := m.svc.Cursor.Progress(); p.Total > 0 {
			right = styles.DimStyle.Render(fmt.Sprintf("%d/%d ", p.Current, p.Total)) +
				styles.RenderProgressBar(float64(p.Percentage), 20)
		}
	}

	gap := max(m.Width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return left + strings.Repeat(" ", gap) + right
}

func (m Model) renderPermission() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Photo library access"))
	b.WriteString("\n\n")

	switch {
	case m.Loading:
		b.WriteString(RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Checking access..."))
	case m.Permission == domain.PermissionDenied:
		b.WriteString(styles.ErrorStyle.Render(m.printer.Sprintf(i18n.MsgPermissionDenied)))
		b.WriteString("\n\n")
		b.WriteString(styles.DimStyle.Render("Check that the library folders in your config are readable."))
		b.WriteString("\n")
		b.WriteString(styles.AccentStyle.Render("g") + styles.DimStyle.Render(" try again"))
	default:
		b.WriteString(styles.SubtitleStyle.Render("picky needs access to your photo library to sort it."))
		b.WriteString("\n\n")
		b.WriteString(styles.AccentStyle.Render("g") + styles.DimStyle.Render(" grant access"))
	}
	return styles.ModalStyle.Render(b.String())
}

func (m Model) renderCard() string {
	if m.Summary != "" {
		body := styles.SuccessStyle.Render(m.Summary) + "\n\n" +
			styles.AccentStyle.Render("a") + styles.DimStyle.Render(" choose another album   ") +
			styles.AccentStyle.Render("u") + styles.DimStyle.Render(" undo last")
		return styles.CardStyle.Render(body)
	}

	item, ok := m.svc.Cursor.Current()
	if !ok {
		if m.Loading {
			return RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
		}
		return styles.DimStyle.Render("No photos or videos here.")
	}

	cardWidth := min(max(m.Width/2, 40), m.Width-4)
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(styles.Truncate(item.Filename, cardWidth-8)))
	b.WriteString("\n")

	kind := styles.DimBadgeStyle.Render(item.Kind.String())
	meta := []string{kind}
	if dims := item.Dimensions(); dims != "" {
		meta = append(meta, styles.SubtitleStyle.Render(dims))
	}
	if d := item.FormattedDuration(); d != "" {
		meta = append(meta, styles.SubtitleStyle.Render(d))
	}
	if item.FileSize > 0 {
		meta = append(meta, styles.SubtitleStyle.Render(m.formatSize(item.FileSize)))
	}
	b.WriteString(strings.Join(meta, "  "))
	b.WriteString("\n")
	if !item.CreatedAt.IsZero() {
		b.WriteString(styles.DimStyle.Render(item.CreatedAt.Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}

	style := styles.CardStyle
	if item.RemoteOnly {
		b.WriteString(styles.DimStyle.Render("☁ stored in the cloud, not downloaded"))
		b.WriteString("\n")
		style = styles.RemoteCardStyle
	}

	b.WriteString("\n")
	b.WriteString(styles.TrashStyle.Render("← trash") + "   " +
		styles.FavoriteStyle.Render("↑ favorite") + "   " +
		styles.KeepStyle.Render("keep →"))

	if m.UndoAvailable {
		b.WriteString("\n")
		b.WriteString(styles.DimStyle.Render("u undo"))
	}

	return style.Width(cardWidth).Render(b.String())
}

// listWindow returns the [start, end) slice of n rows to show around cursor
func listWindow(n, cursor, height int) (int, int) {
	if height <= 0 || n <= height {
		return 0, n
	}
	start := cursor - height/2
	start = max(0, min(start, n-height))
	return start, start + height
}

func (m Model) renderRow(text string, selected bool) string {
	text = styles.Truncate(text, m.Width-4)
	if selected {
		return styles.SelectedItemStyle.Render(styles.Pad(text, m.Width-4))
	}
	return styles.NormalItemStyle.Render(text)
}

func (m Model) renderAlbums(height int) string {
	var lines []string
	if f := m.filter.View(); f != "" {
		lines = append(lines, " "+f)
	}

	list := m.albumChoices()
	if m.Loading && len(m.AlbumList) == 0 {
		lines = append(lines, " "+RenderSpinner(m.SpinnerFrame)+" "+styles.DimStyle.Render("Loading albums..."))
		return strings.Join(lines, "\n")
	}
	if len(list) == 0 {
		lines = append(lines, styles.DimStyle.Render(" No matching albums"))
		return strings.Join(lines, "\n")
	}

	start, end := listWindow(len(list), m.AlbumCursor, height-len(lines))
	for i := start; i < end; i++ {
		a := list[i]
		row := a.Title
		if a.ID != domain.AllMedia {
			row = fmt.Sprintf("%s  (%d)", a.Title, a.AssetCount)
		}
		if a.Smart {
			row += "  ✦"
		}
		if a.ID == m.Selector.AlbumID {
			row = "● " + row
		} else {
			row = "  " + row
		}
		lines = append(lines, m.renderRow(row, i == m.AlbumCursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStaged(height int) string {
	var lines []string

	var total int64
	for _, e := range m.Staged {
		total += e.FileSize
	}
	summary := fmt.Sprintf(" %d items", len(m.Staged))
	if m.State == StateTrash {
		summary += " · " + m.formatSize(total)
	}
	lines = append(lines, styles.SubtitleStyle.Render(summary))
	if f := m.filter.View(); f != "" {
		lines = append(lines, " "+f)
	}

	list := m.visibleStaged()
	if len(list) == 0 {
		empty := " Nothing here"
		if m.State == StateTrash && len(m.Staged) == 0 {
			empty = " " + m.printer.Sprintf(i18n.MsgTrashAlreadyEmpty)
		}
		lines = append(lines, styles.DimStyle.Render(empty))
		return strings.Join(lines, "\n")
	}

	start, end := listWindow(len(list), m.StagedCursor, height-len(lines))
	for i := start; i < end; i++ {
		e := list[i]
		row := fmt.Sprintf("%s  %s", e.StagedAt().Format("2006-01-02 15:04"), e.Filename)
		if e.FileSize > 0 {
			row += "  " + m.formatSize(e.FileSize)
		}
		lines = append(lines, m.renderRow(row, i == m.StagedCursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStats() string {
	if m.Loading {
		return RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Loading...")
	}
	s := m.Stats

	row := func(label string, value any) string {
		return styles.Pad(styles.DimStyle.Render(label), 22) + styles.TitleStyle.Render(fmt.Sprint(value))
	}

	lines := []string{
		styles.AccentStyle.Render("All time"),
		row("Processed", s.Stats.TotalProcessed),
		row("Deleted", s.Stats.TotalDeleted),
		row("Kept", s.Stats.TotalKept),
		row("Favorites", s.Stats.TotalFavorites),
		row("Freed", m.formatSize(s.Stats.TotalBytesFreed)),
		row("In trash", s.Saved),
		"",
		styles.AccentStyle.Render("Today"),
		row("Processed", s.Today.Total),
		row("Deleted", s.Today.Deleted),
		row("Kept", s.Today.Kept),
		row("Favorites", s.Today.Favorites),
		"",
		styles.AccentStyle.Render("This session"),
		row("Processed", s.Session.Total),
		row("Deleted", s.Session.Deleted),
		row("Kept", s.Session.Kept),
		row("Favorites", s.Session.Favorites),
	}

	if level := reachedMilestone(s.Stats.TotalProcessed); level != stats.MilestoneNone {
		lines = append(lines, "", styles.SuccessStyle.Render(m.printer.Sprintf(i18n.MsgMilestone, level)))
	}
	return styles.ModalStyle.Render(strings.Join(lines, "\n"))
}

// reachedMilestone returns the largest milestone total has passed
func reachedMilestone(total int64) int {
	for _, level := range []int{stats.Milestone100, stats.Milestone50, stats.Milestone10} {
		if total >= int64(level) {
			return level
		}
	}
	return stats.MilestoneNone
}

// hint renders a key binding as "key desc"
func hint(b key.Binding) string {
	h := b.Help()
	return styles.AccentStyle.Render(h.Key) + styles.DimStyle.Render(" "+h.Desc)
}

func (m Model) renderFooter() string {
	// Left side: spinner or status
	var left string
	if m.Loading || m.Dispatching {
		left = RenderSpinner(m.SpinnerFrame) + " " + styles.DimStyle.Render("Working...")
	} else if m.StatusMsg != "" {
		if m.StatusIsErr {
			left = styles.ErrorStyle.Render(m.StatusMsg)
		} else {
			left = styles.SuccessStyle.Render(m.StatusMsg)
		}
	}

	// Center section: hints for the current screen
	var hints []string
	switch m.State {
	case StatePermission:
		hints = []string{hint(Keys.Grant)}
	case StateSwiping:
		hints = []string{hint(Keys.Albums), hint(Keys.TrashView), hint(Keys.Favorites), hint(Keys.Stats), hint(Keys.Open)}
	case StateAlbums:
		hints = []string{hint(Keys.Enter), hint(Keys.Filter), hint(Keys.Escape)}
	case StateTrash:
		hints = []string{hint(Keys.Remove), hint(Keys.Empty), hint(Keys.Filter), hint(Keys.Escape)}
	case StateFavorites:
		hints = []string{hint(Keys.Remove), hint(Keys.Filter), hint(Keys.Escape)}
	case StateStats:
		hints = []string{hint(Keys.Refresh), hint(Keys.Escape)}
	}
	center := strings.Join(hints, "  ")

	// Right side: "? help" hint
	right := styles.AccentStyle.Render("?") + styles.DimStyle.Render(" help")

	leftWidth := lipgloss.Width(left)
	centerWidth := lipgloss.Width(center)
	rightWidth := lipgloss.Width(right)

	if leftWidth+centerWidth+rightWidth >= m.Width {
		// Not enough space - just left + right
		gap := max(m.Width-leftWidth-rightWidth, 0)
		return left + strings.Repeat(" ", gap) + right
	}

	available := m.Width - leftWidth - rightWidth
	leftPad := (available - centerWidth) / 2
	rightPad := available - centerWidth - leftPad

	return left + strings.Repeat(" ", leftPad) + center + strings.Repeat(" ", rightPad) + right
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	var b strings.Builder
	for i, section := range HelpSections() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.ModalTitleStyle.Render(strings.ToUpper(section.Title)))
		b.WriteString("\n")
		for _, binding := range section.Bindings {
			h := binding.Help()
			b.WriteString("  " + styles.HelpKeyStyle.Render(styles.Pad(h.Key, 10)) + styles.HelpDescStyle.Render(h.Desc) + "\n")
		}
	}
	b.WriteString("\nDrag the card with the mouse to swipe.\nPress ? or esc to return...")

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(b.String()))
}

// renderEmptyConfirmation renders the empty trash confirmation modal
func (m Model) renderEmptyConfirmation() string {
	var total int64
	for _, e := range m.Staged {
		total += e.FileSize
	}

	modal := fmt.Sprintf(`
            Empty trash?

  %d items (%s) will be removed for good.

          [Y] Yes      [N] No
`, len(m.Staged), m.formatSize(total))

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
