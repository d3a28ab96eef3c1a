package models

// ReadmeName is the file every artifact directory must contain.
const ReadmeName = "readme.txt"

// Artifact is the readme + archive pair produced by a separate build step.
type Artifact struct {
	ReadmePath  string
	ArchivePath string
	// Version is the readme's stable tag. Empty when none is declared.
	Version string
}

// RemotePage is the listing page a slug publishes to.
type RemotePage struct {
	ID   int64
	Slug string
	// Created reports whether this run created the page.
	Created bool
}

// MediaAsset is an uploaded file linked to a RemotePage.
type MediaAsset struct {
	ID       int64
	Filename string
	ParentID int64
}
