package plugin

import "testing"

func TestCanConnectMatchesTable(t *testing.T) {
	t.Parallel()

	// Expected adjacency, row = source, column order:
	// extractor, cleanser, transformer, validator, loader.
	expected := map[Type][5]bool{
		TypeExtractor:   {false, true, true, true, true},
		TypeCleanser:    {false, true, true, true, true},
		TypeTransformer: {false, false, true, true, true},
		TypeValidator:   {false, false, false, true, true},
		TypeLoader:      {false, false, false, false, false},
	}

	for src, row := range expected {
		for i, dst := range Types {
			got := CanConnect(src, dst)
			if got != row[i] {
				t.Errorf("CanConnect(%s, %s) = %v, want %v", src, dst, got, row[i])
			}
		}
	}
}

func TestCanConnectUnknownAlwaysRejected(t *testing.T) {
	t.Parallel()

	for _, other := range Types {
		if CanConnect(TypeUnknown, other) {
			t.Errorf("CanConnect(unknown, %s) = true, want false", other)
		}
		if CanConnect(other, TypeUnknown) {
			t.Errorf("CanConnect(%s, unknown) = true, want false", other)
		}
	}
}

func TestHandleRulesAgreeWithMatrix(t *testing.T) {
	t.Parallel()

	for _, src := range Types {
		for _, dst := range Types {
			if CanConnect(src, dst) && !src.HasOutput() {
				t.Errorf("matrix allows %s as source but it has no output handle", src)
			}
			if CanConnect(src, dst) && !dst.HasInput() {
				t.Errorf("matrix allows %s as target but it has no input handle", dst)
			}
		}
	}

	if TypeExtractor.HasInput() {
		t.Errorf("extractor must not expose an input handle")
	}
	if TypeLoader.HasOutput() {
		t.Errorf("loader must not expose an output handle")
	}
	if TypeUnknown.HasInput() || TypeUnknown.HasOutput() {
		t.Errorf("unknown stub must expose no handles")
	}
}
