package entity

// Folder is a named group of files sharing one destination subdirectory.
type Folder struct {
	Name  string
	Files []*File
}

// File is one manifest entry: the local file name and where to fetch it from.
type File struct {
	Name string // Display name, also used as the local file name
	URL  string // Download URL
}
