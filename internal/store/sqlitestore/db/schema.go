package db

import _ "embed"

//go:embed schema.sql
var Schema string

type PageKind string

const (
	PAGE_KIND_POSTS    PageKind = "posts"
	PAGE_KIND_COMMENTS PageKind = "comments"
)
