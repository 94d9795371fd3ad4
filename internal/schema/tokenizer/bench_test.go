package tokenizer

import (
	"strings"
	"testing"
)

func BenchmarkScan(b *testing.B) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT NOT NULL, total DECIMAL(10,2) DEFAULT 0);\n")
	}
	src := []byte(sb.String())
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Scan("bench.sql", src); err != nil {
			b.Fatalf("scan failed: %v", err)
		}
	}
}
