package entities

import "time"

type SharedStatus string

const (
	SharedStatusDraft     SharedStatus = "draft"
	SharedStatusPublished SharedStatus = "published"
)

// Book is a title imported once from THR. Content corrections happen at the
// source, so rows are never updated here.
type Book struct {
	BookID  uint   `gorm:"column:bookid;primaryKey" json:"bookid"`
	THRSlug string `gorm:"column:thrslug;index;size:255" json:"thrslug"`
	Title   string `gorm:"size:512" json:"title"`
	Author  string `gorm:"size:256" json:"author"`
	Image   string `gorm:"size:2048" json:"image"`
	Pages   int    `json:"pages"` // page count cached at import time
}

func (Book) TableName() string { return "books" }

// Page belongs to exactly one Book. PageNo is a dense 0..N-1 sequence in
// import order.
type Page struct {
	PageID  uint   `gorm:"column:pageid;primaryKey" json:"-"`
	BookID  uint   `gorm:"column:bookid;uniqueIndex:idx_pages_book_pageno" json:"bookid"`
	PageNo  int    `gorm:"column:pageno;uniqueIndex:idx_pages_book_pageno" json:"pageno"`
	Caption string `gorm:"type:text" json:"caption"`
	Image   string `gorm:"size:2048" json:"image"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

func (Page) TableName() string { return "pages" }

// Shared publishes a Book under a unique slug.
type Shared struct {
	SharedID uint         `gorm:"column:sharedid;primaryKey" json:"sharedid"`
	BookID   uint         `gorm:"column:bookid;index" json:"bookid"`
	Slug     string       `gorm:"uniqueIndex;size:255" json:"slug"`
	Status   SharedStatus `gorm:"index;size:20" json:"status"`
	Owner    string       `gorm:"index;size:100" json:"owner"`
	Level    string       `gorm:"size:50" json:"level"`
	Created  time.Time    `json:"created"`
	Modified time.Time    `json:"modified"`
}

func (Shared) TableName() string { return "shared" }

// Comment is attached to a (sharedid, pageno) pair. PageNo is a numeric join
// key into the book's pages, not a foreign key.
type Comment struct {
	CommentID uint   `gorm:"column:commentid;primaryKey" json:"-"`
	SharedID  uint   `gorm:"column:sharedid;index:idx_comments_lookup" json:"sharedid"`
	PageNo    int    `gorm:"column:pageno;index:idx_comments_lookup" json:"pageno"`
	Reading   int    `gorm:"index:idx_comments_lookup" json:"reading"`
	Comment   string `gorm:"type:text" json:"comment"`
}

func (Comment) TableName() string { return "comments" }

// BookSummary is the list view of a shared book.
type BookSummary struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Pages  int    `json:"pages"`
	Slug   string `json:"slug"`
	Level  string `json:"level"`
	Image  string `json:"image"`
}

// BookIndex groups the three summary lists returned by GET /books.
type BookIndex struct {
	Recent []BookSummary `json:"recent"`
	Yours  []BookSummary `json:"yours"`
	Books  []BookSummary `json:"books"`
}

// PageView is a page as rendered to readers, with its comment texts.
type PageView struct {
	Text     string   `json:"text"`
	URL      string   `json:"url"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Comments []string `json:"comments"`
}

// BookView is the full reader payload of a shared book.
type BookView struct {
	Title  string     `json:"title"`
	Slug   string     `json:"slug"`
	Status string     `json:"status"`
	Level  string     `json:"level"`
	Author string     `json:"author"`
	Owner  string     `json:"owner"`
	Pages  []PageView `json:"pages"`

	SharedID uint `json:"-"`
	BookID   uint `json:"-"`
}
