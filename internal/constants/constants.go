package constants

import "time"

// Markers that appear verbatim in chamber directory cells.
const (
	UnknownValue       = "不明"
	ProportionalMarker = "比例"
	SenateMarker       = "参"
	HonorificSuffix    = "君"
)

// Prefectures are the 47 prefecture names as the directory pages print them
// in constituency cells (no 都/府/県 suffix, 北海道 as-is).
var Prefectures = []string{
	"北海道", "青森", "岩手", "宮城", "秋田", "山形", "福島",
	"茨城", "栃木", "群馬", "埼玉", "千葉", "東京", "神奈川",
	"新潟", "富山", "石川", "福井", "山梨", "長野",
	"岐阜", "静岡", "愛知", "三重",
	"滋賀", "京都", "大阪", "兵庫", "奈良", "和歌山",
	"鳥取", "島根", "岡山", "広島", "山口",
	"徳島", "香川", "愛媛", "高知",
	"福岡", "佐賀", "長崎", "熊本", "大分", "宮崎", "鹿児島", "沖縄",
}

// ProportionalBlocks are the 11 proportional-representation block names.
var ProportionalBlocks = []string{
	"北海道", "東北", "北関東", "南関東", "東京", "北陸信越",
	"東海", "近畿", "中国", "四国", "九州",
}

// Party pairs a canonical party name with the short forms the directory
// pages use in the faction column.
type Party struct {
	Name     string
	Keywords []string
}

var Parties = []Party{
	{Name: "自由民主党", Keywords: []string{"自由民主党", "自民"}},
	{Name: "立憲民主党", Keywords: []string{"立憲民主党", "立憲", "立民"}},
	{Name: "公明党", Keywords: []string{"公明"}},
	{Name: "日本維新の会", Keywords: []string{"維新"}},
	{Name: "日本共産党", Keywords: []string{"共産"}},
	{Name: "国民民主党", Keywords: []string{"国民民主党", "国民"}},
	{Name: "れいわ新選組", Keywords: []string{"れいわ"}},
	{Name: "社会民主党", Keywords: []string{"社会民主党", "社民"}},
	{Name: "参政党", Keywords: []string{"参政"}},
	{Name: "無所属", Keywords: []string{"無所属"}},
}

// HeaderKeywords mark rows that are column headers rather than members.
var HeaderKeywords = []string{
	"氏名", "議員氏名", "ふりがな", "読み方", "会派",
	"選挙区", "当選回数", "任期満了", "備考",
}

var ElectionCountLimits = struct {
	Min int
	Max int
}{
	Min: 1,
	Max: 25,
}

var ScrapeLimits = struct {
	MinMemberCells     int
	MaxSkippedRowRatio float64
	RowLogLength       int
}{
	MinMemberCells:     3,   // name + at least two attribute columns
	MaxSkippedRowRatio: 0.5, // above this a template change is likely
	RowLogLength:       40,
}

var FetchConfig = struct {
	UserAgent      string
	AcceptLanguage string
	MaxBodyBytes   int64
}{
	UserAgent:      "mieruca-kokkai/1.0 (+https://github.com/mieruca/mieruca-kokkai)",
	AcceptLanguage: "ja,en;q=0.8",
	MaxBodyBytes:   8 << 20,
}

var PageCacheTTL = struct {
	ListPage    time.Duration
	ProfilePage time.Duration
}{
	ListPage:    30 * time.Minute,
	ProfilePage: 6 * time.Hour,
}

var AllowedURLSchemes = []string{"http", "https"}

// ExcludedLinkHosts are accessibility-widget hosts that must never be taken
// as a member's own website.
var ExcludedLinkHosts = []string{"readspeaker.jp", "readspeaker.com"}
