package stats

// ItemKind tells what a ProcessedItemInfo describes.
type ItemKind int

// Item kinds.
const (
	FileItem ItemKind = iota
	DirectoryItem
	SystemMessage
)

// Class is the classification label written to the log, using the
// vocabulary of the mirroring tool the log format follows.
type Class string

// File classes.
const (
	ClassNewFile       Class = "New File"
	ClassSame          Class = "same"
	ClassNewer         Class = "Newer"
	ClassOlder         Class = "Older"
	ClassChanged       Class = "Changed"
	ClassExtraFile     Class = "*EXTRA File"
	ClassMismatch      Class = "*Mismatch"
	ClassFailed        Class = "Failed"
	ClassExcluded      Class = "named"
	ClassNewerExcluded Class = "Newer XN"
	ClassOlderExcluded Class = "Older XO"
)

// Directory classes.
const (
	ClassNewDir      Class = "New Dir"
	ClassExistingDir Class = "Dir"
	ClassExtraDir    Class = "*EXTRA Dir"
	ClassExcludedDir Class = "named Dir"
)

// ProcessedItemInfo describes one file, directory or message of a run. It is
// created once per item and its Class does not change afterwards.
type ProcessedItemInfo struct {
	Kind  ItemKind
	Class Class
	Name  string
	Size  int64
	// Destination is where a file item is written. Several items may share
	// a Name when one source fans out to many destinations.
	Destination string
}

// Key identifies a file item within a run: its destination, or its name
// when it has none.
func (i ProcessedItemInfo) Key() string {
	if i.Destination != "" {
		return i.Destination
	}

	return i.Name
}

// WithDestination returns a copy of the item bound to destination.
func (i ProcessedItemInfo) WithDestination(destination string) ProcessedItemInfo {
	i.Destination = destination
	return i
}

// NewFileItem describes a file.
func NewFileItem(class Class, name string, size int64) ProcessedItemInfo {
	return ProcessedItemInfo{Kind: FileItem, Class: class, Name: name, Size: size}
}

// NewDirItem describes a directory.
func NewDirItem(class Class, name string) ProcessedItemInfo {
	return ProcessedItemInfo{Kind: DirectoryItem, Class: class, Name: name}
}

// NewMessage describes a system message.
func NewMessage(text string) ProcessedItemInfo {
	return ProcessedItemInfo{Kind: SystemMessage, Name: text}
}

// IsCopyCandidate reports whether the class names a file that is copied when
// selected: new, newer, older or same.
func (c Class) IsCopyCandidate() bool {
	switch c {
	case ClassNewFile, ClassNewer, ClassOlder, ClassSame:
		return true
	default:
		return false
	}
}
