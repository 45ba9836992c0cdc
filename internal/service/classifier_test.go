package service

import (
	"testing"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
)

func TestClassifyPrefectureNumberForms(t *testing.T) {
	classifier := NewDistrictClassifier()

	cases := []struct {
		input      string
		prefecture string
		number     string
	}{
		{"東京1", "東京", "1"},
		{"東京1区", "東京", "1"},
		{"東京１区", "東京", "1"},
		{"  神奈川10区  ", "神奈川", "10"},
		{"北海道12", "北海道", "12"},
	}

	for _, tc := range cases {
		got := classifier.Classify(tc.input)
		if got.System != domain.SystemSingleSeat {
			t.Fatalf("Classify(%q): expected single-seat system, got %s", tc.input, got.System)
		}
		if got.Prefecture != tc.prefecture || got.DistrictNumber != tc.number {
			t.Fatalf("Classify(%q): expected %s/%s, got %s/%s",
				tc.input, tc.prefecture, tc.number, got.Prefecture, got.DistrictNumber)
		}
	}
}

func TestClassifyCoversEveryPrefecture(t *testing.T) {
	classifier := NewDistrictClassifier()

	for _, prefecture := range constants.Prefectures {
		got := classifier.Classify(prefecture + "3")
		if got.Prefecture != prefecture || got.DistrictNumber != "3" {
			t.Fatalf("Classify(%q): expected %s/3, got %s/%s",
				prefecture+"3", prefecture, got.Prefecture, got.DistrictNumber)
		}

		bare := classifier.Classify(prefecture)
		if bare.Prefecture != prefecture || bare.DistrictNumber != "" {
			t.Fatalf("Classify(%q): expected bare prefecture, got %s/%s",
				prefecture, bare.Prefecture, bare.DistrictNumber)
		}
	}
}

func TestClassifyEmptyAndUnknownAgree(t *testing.T) {
	classifier := NewDistrictClassifier()

	empty := classifier.Classify("")
	unknown := classifier.Classify(constants.UnknownValue)
	blank := classifier.Classify("   ")

	if empty != unknown || empty != blank {
		t.Fatalf("expected empty, blank and %s inputs to classify identically, got %v / %v / %v",
			constants.UnknownValue, empty, blank, unknown)
	}
	if empty.System != domain.SystemSingleSeat || empty.Prefecture != constants.UnknownValue {
		t.Fatalf("expected placeholder descriptor, got %v", empty)
	}
}

func TestClassifyBareDigitsBecomeUnknown(t *testing.T) {
	classifier := NewDistrictClassifier()

	for _, input := range []string{"5", "12", "１２"} {
		got := classifier.Classify(input)
		if got.Prefecture != constants.UnknownValue || got.DistrictNumber != "" {
			t.Fatalf("Classify(%q): expected unknown placeholder, got %v", input, got)
		}
	}
}

func TestClassifyProportionalBlocks(t *testing.T) {
	classifier := NewDistrictClassifier()

	for _, block := range constants.ProportionalBlocks {
		got := classifier.Classify(constants.ProportionalMarker + block)
		if got.System != domain.SystemProportional {
			t.Fatalf("Classify(%q): expected proportional system, got %s",
				constants.ProportionalMarker+block, got.System)
		}
		if got.Area != block {
			t.Fatalf("Classify(%q): expected area %s, got %s",
				constants.ProportionalMarker+block, block, got.Area)
		}
		if got.Prefecture != "" || got.DistrictNumber != "" {
			t.Fatalf("Classify(%q): expected no constituency fields, got %v",
				constants.ProportionalMarker+block, got)
		}
	}
}

func TestClassifyProportionalWithDecoration(t *testing.T) {
	classifier := NewDistrictClassifier()

	got := classifier.Classify("（比例）南関東")
	if got.System != domain.SystemProportional || got.Area != "南関東" {
		t.Fatalf("expected 南関東 proportional block, got %v", got)
	}
}

func TestClassifyProportionalFallbackKeepsText(t *testing.T) {
	classifier := NewDistrictClassifier()

	got := classifier.Classify("比例代表")
	if got.System != domain.SystemProportional {
		t.Fatalf("expected proportional system, got %s", got.System)
	}
	if got.Area != "比例代表" {
		t.Fatalf("expected verbatim area for unrecognized block, got %s", got.Area)
	}
}

func TestClassifyTrailingNumberFallback(t *testing.T) {
	classifier := NewDistrictClassifier()

	got := classifier.Classify("信越ブロック3")
	if got.Prefecture != "信越ブロック" || got.DistrictNumber != "3" {
		t.Fatalf("expected trailing number split, got %v", got)
	}
}

func TestClassifyVerbatimFallback(t *testing.T) {
	classifier := NewDistrictClassifier()

	got := classifier.Classify("全国区")
	if got.System != domain.SystemSingleSeat || got.Prefecture != "全国区" || got.DistrictNumber != "" {
		t.Fatalf("expected verbatim descriptor, got %v", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := NewDistrictClassifier()

	inputs := []string{"", "東京1区", "比例北陸信越", "5", "大阪", "謎の選挙区9"}
	for _, input := range inputs {
		first := classifier.Classify(input)
		for i := 0; i < 3; i++ {
			if got := classifier.Classify(input); got != first {
				t.Fatalf("Classify(%q): expected stable result %v, got %v", input, first, got)
			}
		}
	}
}

func TestNormalizeDistrictText(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"東京１区", "東京1"},
		{"東京1区", "東京1"},
		{"  東京  ", "東京"},
		{"丸の内区", "丸の内区"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeDistrictText(tc.input); got != tc.want {
			t.Fatalf("NormalizeDistrictText(%q): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestIsDistrictCandidate(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"東京1区", true},
		{"比例北関東", true},
		{"大阪", true},
		{"北海道", true},
		{"5", false},
		{"１２", false},
		{"", false},
		{"自由民主党", false},
		{"信越ブロック3", false},
	}

	for _, tc := range cases {
		if got := IsDistrictCandidate(tc.input); got != tc.want {
			t.Fatalf("IsDistrictCandidate(%q): expected %v, got %v", tc.input, tc.want, got)
		}
	}
}

func TestParseElectionCountHouseOnly(t *testing.T) {
	cases := []struct {
		input string
		house int
	}{
		{"1", 1},
		{"5", 5},
		{"２５", 25},
		{" 10 ", 10},
	}

	for _, tc := range cases {
		got := ParseElectionCount(tc.input)
		if got == nil {
			t.Fatalf("ParseElectionCount(%q): expected a count, got nil", tc.input)
		}
		if got.House != tc.house || got.Senate != 0 || got.HasSenate() {
			t.Fatalf("ParseElectionCount(%q): expected house-only %d, got %+v", tc.input, tc.house, got)
		}
	}
}

func TestParseElectionCountCompound(t *testing.T) {
	cases := []struct {
		input  string
		house  int
		senate int
	}{
		{"1（参2）", 1, 2},
		{"3(参1)", 3, 1},
		{"１０（参３）", 10, 3},
	}

	for _, tc := range cases {
		got := ParseElectionCount(tc.input)
		if got == nil {
			t.Fatalf("ParseElectionCount(%q): expected a count, got nil", tc.input)
		}
		if got.House != tc.house || got.Senate != tc.senate || !got.HasSenate() {
			t.Fatalf("ParseElectionCount(%q): expected %d/%d, got %+v", tc.input, tc.house, tc.senate, got)
		}
	}
}

func TestParseElectionCountRejectsOutOfRange(t *testing.T) {
	inputs := []string{"", "0", "26", "100", "1.5", "5回", "当選", "0（参1）", "1（参0）", "1（参26）"}

	for _, input := range inputs {
		if got := ParseElectionCount(input); got != nil {
			t.Fatalf("ParseElectionCount(%q): expected nil, got %+v", input, got)
		}
	}
}
