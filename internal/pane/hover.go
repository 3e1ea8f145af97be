package pane

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/justyntemme/twinpane/internal/fs"
	"github.com/mattn/go-runewidth"
)

// hoverNameWidth caps the name line of a tooltip, in display cells.
const hoverNameWidth = 60

// HoverText is the tooltip for a row: the name for directories, and for
// everything else the name, size and how long ago it was modified. The
// parent row has none.
func HoverText(row fs.Row, now time.Time) string {
	if row.Imaginary {
		return ""
	}
	name := runewidth.Truncate(row.FileName(), hoverNameWidth, "...")
	if row.IsDir() {
		return name
	}
	text := fmt.Sprintf("%s\n%s", name, humanize.IBytes(uint64(max(row.Size, 0))))
	if !row.ModTime.IsZero() {
		text += ", modified " + humanize.RelTime(row.ModTime, now, "ago", "from now")
	}
	return text
}
