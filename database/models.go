package database

import (
	"time"
)

type Source struct {
	Path      string `gorm:"primaryKey"`
	CreatedAt time.Time
}

type Archive struct {
	Path       string `gorm:"primaryKey"`
	SourcePath string
	Source     Source `gorm:"foreignKey:SourcePath"`
	AppName    string
	Boundary   string
	Size       int64
	CreatedAt  time.Time
}

type ArchivePart struct {
	ArchivePath string  `gorm:"primaryKey"`
	Name        string  `gorm:"primaryKey"`
	Archive     Archive `gorm:"foreignKey:ArchivePath"`
	Position    int
	ContentID   string
	MediaType   string
	Encoding    string
	Hash        int64
	Size        int64
	ModTime     time.Time
	CreatedAt   time.Time
}
