//go:build ignore

// Package main generates a synthetic legal corpus for benchmarking
// index builds.
// Usage: go run scripts/generate-test-corpus.go -docs 1000 -output testdata/bench-corpus.json
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
	numDocs    = flag.Int("docs", 1000, "Number of documents to generate")
	outputPath = flag.String("output", "testdata/bench-corpus.json", "Output corpus file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
	maxSents   = flag.Int("sentences", 12, "Maximum sentences per document")
)

type record struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

// Sentence templates mimicking statutory prose. Placeholders are filled
// with random subjects and terms so documents share vocabulary without
// being identical.
var sentenceTemplates = []string{
	"Общий срок %s составляет %d года со дня, когда лицо узнало о нарушении своего права.",
	"%s осуществляется в порядке, установленном настоящим Кодексом и иными федеральными законами.",
	"В случае нарушения %s виновное лицо несет ответственность, предусмотренную законодательством.",
	"Договор %s считается заключенным с момента передачи соответствующего имущества.",
	"Право собственности на %s возникает с момента государственной регистрации.",
	"Суд вправе уменьшить размер %s, если подлежащая уплате сумма явно несоразмерна последствиям нарушения.",
	"К отношениям по %s применяются правила настоящей главы, если иное не предусмотрено законом.",
	"Стороны обязаны уведомить друг друга об изменении %s в течение %d дней.",
	"Сделка, совершенная с нарушением требований о %s, является ничтожной.",
	"Наследники по закону призываются к наследованию %s в порядке очередности.",
}

var subjects = []string{
	"исковой давности", "государственной регистрации", "аренды недвижимого имущества",
	"купли-продажи", "неустойки", "обязательных требований", "передачи имущества",
	"условий договора", "прав потребителя", "интеллектуальной собственности",
	"трудовых отношений", "налоговых обязательств", "корпоративных прав",
}

var codes = []string{"ГК РФ", "ТК РФ", "НК РФ", "КоАП РФ", "ЖК РФ"}

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	records := make([]record, 0, *numDocs)
	for i := 0; i < *numDocs; i++ {
		n := 1 + rng.Intn(*maxSents)
		sentences := make([]string, 0, n)
		for j := 0; j < n; j++ {
			tpl := sentenceTemplates[rng.Intn(len(sentenceTemplates))]
			subject := subjects[rng.Intn(len(subjects))]
			if strings.Contains(tpl, "%d") {
				sentences = append(sentences, fmt.Sprintf(tpl, subject, 1+rng.Intn(30)))
			} else {
				sentences = append(sentences, fmt.Sprintf(tpl, subject))
			}
		}

		records = append(records, record{
			Text:      strings.Join(sentences, " "),
			Reference: fmt.Sprintf("%s ст. %d", codes[rng.Intn(len(codes))], 1+rng.Intn(1500)),
		})
	}

	if err := os.MkdirAll(filepath.Dir(*outputPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d documents at %s\n", len(records), *outputPath)
}
