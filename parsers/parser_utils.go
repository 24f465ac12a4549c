package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// SkipBOM はUTF-8 BOMをスキップします。
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	bom := []byte{0xEF, 0xBB, 0xBF}
	peeked, err := br.Peek(3)
	if err != nil {
		return br
	}
	isBOM := true
	for i, b := range bom {
		if peeked[i] != b {
			isBOM = false
			break
		}
	}
	if isBOM {
		br.Discard(3)
	}
	return br
}

// CanonicalEncoding は文字コード名を比較用に正規化します。空文字と utf8 は utf-8 になります。
func CanonicalEncoding(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "utf8" {
		return "utf-8"
	}
	return n
}

// DecodeReader は文字コード名（"utf-8", "shift_jis", "windows-1252" など）に応じて
// UTF-8 へ変換するリーダーを返します。空文字と utf-8 はそのまま返します。
func DecodeReader(r io.Reader, encodingName string) (io.Reader, error) {
	name := CanonicalEncoding(encodingName)
	if name == "utf-8" {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", encodingName, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// getColIndex はヘッダー名から列インデックスを取得するヘルパーです。
func getColIndex(header []string, required []string) (map[string]int, error) {
	colIndex := make(map[string]int)
	for i, colName := range header {
		colIndex[strings.TrimSpace(colName)] = i
	}
	var missing []string
	for _, req := range required {
		if _, ok := colIndex[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingHeader, strings.Join(missing, ", "))
	}
	return colIndex, nil
}
