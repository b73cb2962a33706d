package styles

// Tip: To find icons use https://github.com/loichyan/nerdfix

// Tree icons
var (
	IconFolderOpen   = "\uf07c"  // nf-fa-folder_open
	IconFolderClosed = "\uf07b"  // nf-fa-folder
	IconFileDefault  = "\uf15b " // nf-fa-file
	IconFileC        = "\ue61e " // nf-custom-c
	IconFileAsm      = "\ue637 " // nf-seti-asm
)

// Status icons
var (
	IconCheck   = "✓"
	IconWarning = "!"
	IconError   = "✗"
	IconPending = "…"
	IconMarker  = "●"
)
