//go:build ignore

// Package main generates a synthetic policy pages JSON file for
// benchmarking and manual testing.
// Usage: go run scripts/generate-test-pages.go -pages 200 -output testdata/pages.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var (
	numPages  = flag.Int("pages", 200, "Number of pages to generate")
	output    = flag.String("output", "testdata/pages.json", "Output JSON path")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	tokensPer = flag.Int("tokens", 400, "Approximate tokens per page")
)

// clause templates with article numbering and amounts filled in per page
var clauseTemplates = []string{
	"제%d조 (보험금의 지급) 회사는 피보험자가 보험기간 중 %s 진단이 확정된 경우 보험수익자에게 보험금 %d만원을 지급합니다.",
	"제%d조 (보험료의 납입) 계약자는 보험료를 매월 납입하며, 납입기일까지 납입하지 않은 경우 %d일의 납입최고기간을 둡니다.",
	"제%d조 (계약의 해지) 계약자는 언제든지 계약을 해지할 수 있으며, 회사는 해지환급금을 %d영업일 이내에 지급합니다.",
	"제%d조 (면책사항) 회사는 피보험자가 고의로 자신을 해친 경우 또는 계약일부터 %d년 이내에 발생한 %s에 대하여는 보험금을 지급하지 않습니다.",
	"제%d조 (알릴 의무) 계약자 또는 피보험자는 청약할 때 청약서에서 질문한 사항에 대하여 알고 있는 사실을 반드시 사실대로 알려야 합니다.",
}

var diseases = []string{"암", "뇌출혈", "급성심근경색증", "말기신부전증", "중대한화상"}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	type page struct {
		Page   int    `json:"page"`
		Text   string `json:"text"`
		Source string `json:"source"`
	}

	pages := make([]page, 0, *numPages)
	article := 1
	for p := 1; p <= *numPages; p++ {
		var sb strings.Builder
		tokens := 0
		for tokens < *tokensPer {
			tmpl := clauseTemplates[rng.Intn(len(clauseTemplates))]
			clause := fillTemplate(tmpl, article, rng)
			article++
			sb.WriteString(clause)
			sb.WriteString("\n")
			tokens += len(strings.Fields(clause))
		}
		pages = append(pages, page{Page: p, Text: sb.String(), Source: "synthetic-policy.pdf"})
	}

	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal pages: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(*output), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d pages to %s\n", len(pages), *output)
}

func fillTemplate(tmpl string, article int, rng *rand.Rand) string {
	n := strings.Count(tmpl, "%")
	switch n {
	case 1:
		return fmt.Sprintf(tmpl, article)
	case 2:
		return fmt.Sprintf(tmpl, article, 1+rng.Intn(30))
	default:
		disease := diseases[rng.Intn(len(diseases))]
		if strings.Index(tmpl, "%s") < strings.LastIndex(tmpl, "%d") {
			return fmt.Sprintf(tmpl, article, disease, (1+rng.Intn(50))*100)
		}
		return fmt.Sprintf(tmpl, article, 1+rng.Intn(3), disease)
	}
}
