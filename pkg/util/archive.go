package util

import (
	"archive/zip"
	"os"
)

// ArchiveEntry 压缩包内的一个文件条目
type ArchiveEntry struct {
	Name string // 包内相对路径，使用 "/" 分隔
	Data []byte
}

// ZipEntries creates a zip archive from ordered entries
// 条目按切片顺序写入，保证包内文件顺序稳定
func ZipEntries(entries []ArchiveEntry, target string) error {
	zipFile, err := os.Create(target)
	if err != nil {
		return err
	}
	defer zipFile.Close()

	archive := zip.NewWriter(zipFile)

	for _, entry := range entries {
		writer, err := archive.Create(entry.Name)
		if err != nil {
			archive.Close()
			return err
		}
		if _, err = writer.Write(entry.Data); err != nil {
			archive.Close()
			return err
		}
	}

	return archive.Close()
}
