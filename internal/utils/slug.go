package utils

import (
	"errors"
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

const rootFolder = "collections"

// ErrUnsafeFolderName is returned for names that cannot stand as a single folder segment.
var ErrUnsafeFolderName = errors.New("name cannot be used as a folder name")

// Slug lowercases text and collapses whitespace runs into hyphens.
func Slug(text string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "-")
}

// FolderSegment is the slug of name, provided it names exactly one folder below its parent.
func FolderSegment(name string) (string, error) {
	s := Slug(name)
	if s == "" || s == "." || s == ".." || strings.ContainsAny(s, `/\`) {
		return "", ErrUnsafeFolderName
	}
	return s, nil
}

// CollectionFolder and GalleryFolder concatenate slugs without cleaning the path,
// so a dot segment stays literal instead of resolving to a parent folder.
func CollectionFolder(collectionName string) string {
	return rootFolder + "/" + Slug(collectionName)
}

func GalleryFolder(collectionName, galleryName string) string {
	return rootFolder + "/" + Slug(collectionName) + "/" + Slug(galleryName)
}
