package domain

// SmartQuery 查询优化器为不同类型档案库生成的检索短语
// 任一字段为空时使用原始主题兜底
type SmartQuery struct {
	GeneralPhrase  string `json:"generalPhrase"`
	ArchivalPhrase string `json:"archivalPhrase"`
	ArtPhrase      string `json:"artPhrase"`
	SpacePhrase    string `json:"spacePhrase"`
}

// PhraseFor 按来源类型路由检索短语
// 综合库走通用短语，艺术馆走艺术短语，NASA 走航天短语，档案馆走馆藏短语
func (q SmartQuery) PhraseFor(s Source) string {
	switch s {
	case SourceMet, SourceAIC, SourceCleveland:
		return q.ArtPhrase
	case SourceNASA:
		return q.SpacePhrase
	case SourceLOC, SourceInternetArchive:
		return q.ArchivalPhrase
	default:
		return q.GeneralPhrase
	}
}
