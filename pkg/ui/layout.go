package ui

// Screen regions, in terminal cells.
const (
	// SideNavWidth is the width of each previous/next button column.
	SideNavWidth = 3

	// HeaderRows holds the deck title.
	HeaderRows = 1

	// NavRows holds the navigation dots.
	NavRows = 1

	// FooterRows holds the status line and key help.
	FooterRows = 2

	// LinkRows is reserved under a linked slide.
	LinkRows = 1

	// MinArtRows is the smallest image height worth drawing.
	MinArtRows = 3
)

// Layout widths below which parts of the chrome are dropped.
const (
	// BreakpointNarrow hides the key help line.
	BreakpointNarrow = 60

	// MinContentWidth is the narrowest slide area that is still drawn.
	MinContentWidth = 10
)
