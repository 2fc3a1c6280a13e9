package domain

import (
	"fmt"
	"strings"
)

// Source 图片来源档案库
// 声明顺序即聚合时的轮询优先级顺序
type Source int

const (
	SourceWikimedia Source = iota
	SourceMet
	SourceAIC
	SourceNASA
	SourceCleveland
	SourceLOC
	SourceInternetArchive

	sourceCount
)

var sourceNames = [...]string{
	SourceWikimedia:       "wikimedia",
	SourceMet:             "met",
	SourceAIC:             "aic",
	SourceNASA:            "nasa",
	SourceCleveland:       "cleveland",
	SourceLOC:             "loc",
	SourceInternetArchive: "internetarchive",
}

var sourceLabels = [...]string{
	SourceWikimedia:       "Wikimedia Commons",
	SourceMet:             "The Metropolitan Museum of Art",
	SourceAIC:             "Art Institute of Chicago",
	SourceNASA:            "NASA Image Library",
	SourceCleveland:       "Cleveland Museum of Art",
	SourceLOC:             "Library of Congress",
	SourceInternetArchive: "Internet Archive",
}

// AllSources 按优先级顺序返回全部来源
func AllSources() []Source {
	all := make([]Source, 0, int(sourceCount))
	for s := Source(0); s < sourceCount; s++ {
		all = append(all, s)
	}
	return all
}

func (s Source) Valid() bool {
	return s >= 0 && s < sourceCount
}

func (s Source) String() string {
	if !s.Valid() {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceNames[s]
}

// Label 展示名称，用于图片的 Attribution 与日志
func (s Source) Label() string {
	if !s.Valid() {
		return s.String()
	}
	return sourceLabels[s]
}

// ParseSource 解析来源名称（不区分大小写）
func ParseSource(name string) (Source, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for s, sn := range sourceNames {
		if sn == n {
			return Source(s), nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", name)
}

// SourceSet 来源开关位掩码
type SourceSet uint16

// AllSourceSet 全部来源启用
func AllSourceSet() SourceSet {
	return SourceSet(1<<uint(sourceCount)) - 1
}

func (ss SourceSet) Has(s Source) bool {
	if !s.Valid() {
		return false
	}
	return ss&(1<<uint(s)) != 0
}

func (ss SourceSet) With(s Source) SourceSet {
	if !s.Valid() {
		return ss
	}
	return ss | (1 << uint(s))
}

func (ss SourceSet) Without(s Source) SourceSet {
	if !s.Valid() {
		return ss
	}
	return ss &^ (1 << uint(s))
}

func (ss SourceSet) IsEmpty() bool {
	return ss == 0
}

// Names 已启用来源的名称列表，按优先级顺序
func (ss SourceSet) Names() []string {
	var names []string
	for _, s := range AllSources() {
		if ss.Has(s) {
			names = append(names, s.String())
		}
	}
	return names
}

// ParseSourceSet 从名称列表构建来源集合，空列表表示全部启用
func ParseSourceSet(names []string) (SourceSet, error) {
	if len(names) == 0 {
		return AllSourceSet(), nil
	}
	var ss SourceSet
	for _, name := range names {
		s, err := ParseSource(name)
		if err != nil {
			return 0, err
		}
		ss = ss.With(s)
	}
	return ss, nil
}

// ImageRecord 一条公共领域图片记录
// ExtractedURL 与 IsExtracting 是画板维护的覆盖字段，不来自档案库
type ImageRecord struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbURL     string `json:"thumbUrl"`
	DetailURL    string `json:"detailUrl"`
	License      string `json:"license"`
	Attribution  string `json:"attribution"`
	Source       Source `json:"-"`
	SourceName   string `json:"source"`
	ExtractedURL string `json:"extractedUrl,omitempty"`
	IsExtracting bool   `json:"isExtracting,omitempty"`
}

// Stamp 填充来源展示字段
func (r *ImageRecord) Stamp(s Source) {
	r.Source = s
	r.SourceName = s.Label()
}
