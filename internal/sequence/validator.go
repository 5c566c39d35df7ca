// Package sequence checks user supplied protein text for the minimal FASTA
// shape the workflow accepts.
package sequence

import (
	"regexp"
	"strings"

	"github.com/felixbrock/dockflow/internal/domain"
)

// A header line followed by one or more lines of letters. Residues are not
// checked against the amino acid alphabet.
var fastaPattern = regexp.MustCompile(`^>.+\n[A-Za-z\n]+$`)

// A blank header still passes the pattern; the id then falls back to this
// many leading residues.
const fallbackIdLen = 16

func Validate(text string) (domain.Sequence, error) {
	normalized := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))

	if normalized == "" {
		return domain.Sequence{Raw: text, Format: domain.FormatInvalid}, domain.ErrEmptyInput
	}

	if !fastaPattern.MatchString(normalized) {
		return domain.Sequence{Raw: text, Format: domain.FormatInvalid}, domain.ErrMalformedFormat
	}

	header, body, _ := strings.Cut(normalized, "\n")
	header = strings.TrimSpace(strings.TrimPrefix(header, ">"))
	residues := strings.ToUpper(strings.ReplaceAll(body, "\n", ""))

	id := Accession(header)
	if id == "" {
		id = residues[:min(len(residues), fallbackIdLen)]
	}

	return domain.Sequence{
		Id:       id,
		Header:   header,
		Residues: residues,
		Raw:      normalized,
		Format:   domain.FormatValidFasta,
	}, nil
}

// Accession derives the lookup identifier from a header line: the first
// whitespace delimited token, or the middle field of db|ACC|NAME headers.
func Accession(header string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, ">"))
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return ""
	}
	token := fields[0]

	parts := strings.Split(token, "|")
	if len(parts) >= 2 && parts[1] != "" {
		return parts[1]
	}
	return token
}
