package digest

import (
	"strings"
	"testing"
)

func TestSum_KnownVectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string",
			input: "",
			want:  "a69f73cca23a9ac5c8b567dc185a756e97c982164fe25859e0d1dcc1475c80a615b2123af1f5f94c11e3e9402c3ac558f500199d95b6d3e301758586281dcd26",
		},
		{
			name:  "quick brown fox",
			input: "The quick brown fox jumps over the lazy dog",
			want:  "01dedd5de4ef14642445ba5f5b97c15e47b9ad931326e4b0727cd94cefc44fff23f07bf543139939b49128caf436dc1bdee54fcb24023a08d9403f9b4bf0d450",
		},
		{
			name:  "quick brown fox with period",
			input: "The quick brown fox jumps over the lazy dog.",
			want:  "18f4f4bd419603f95538837003d9d254c26c23765565162247483f65c50303597bc9ce4d289f21d1c2f1f458828e33dc442100331b35e7eb031b5d38ba6460f8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sum(tt.input)
			if got != tt.want {
				t.Errorf("Sum(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestSum_Deterministic(t *testing.T) {
	input := "deterministic input with unicode: héllo wörld 日本"
	first := Sum(input)
	second := Sum(input)

	if first != second {
		t.Errorf("Sum is not deterministic: %s != %s", first, second)
	}
}

func TestSum_OutputShape(t *testing.T) {
	inputs := []string{"", "a", strings.Repeat("x", 71), strings.Repeat("x", 72), strings.Repeat("x", 73), strings.Repeat("block boundary ", 100)}

	for _, input := range inputs {
		got := Sum(input)
		if len(got) != 128 {
			t.Errorf("Sum(%d bytes) returned %d chars, want 128", len(input), len(got))
		}
		if got != strings.ToLower(got) {
			t.Errorf("Sum(%d bytes) is not lowercase", len(input))
		}
	}
}

func TestSum_DistinctInputs(t *testing.T) {
	seen := map[string]string{}
	inputs := []string{"", "a", "b", "ab", "ba", "aa", strings.Repeat("a", 72), strings.Repeat("a", 73)}

	for _, input := range inputs {
		sum := Sum(input)
		if prev, ok := seen[sum]; ok {
			t.Errorf("collision between %q and %q", prev, input)
		}
		seen[sum] = input
	}
}

func TestSumBytes_MatchesSum(t *testing.T) {
	input := "same bytes either way"
	if Sum(input) != SumBytes([]byte(input)) {
		t.Error("Sum and SumBytes disagree on identical input")
	}
}

func BenchmarkSum(b *testing.B) {
	payload := strings.Repeat("benchmark payload ", 64)
	b.SetBytes(int64(len(payload)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Sum(payload)
	}
}
