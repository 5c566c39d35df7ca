package persistence

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/felixbrock/dockflow/internal/domain"
)

//go:embed candidates.csv
var defaultCandidates []byte

var candidateHeader = []string{"id", "name", "score", "molecular_weight", "log_p", "description"}

// CandidateRepo supplies the generated candidate set. An empty Path serves
// the built-in set.
type CandidateRepo struct {
	Path string
}

func (r CandidateRepo) Read() ([]domain.Candidate, error) {
	if r.Path == "" {
		return readCandidates(bytes.NewReader(defaultCandidates))
	}

	file, err := os.Open(r.Path)
	if err != nil {
		return nil, err
	}

	defer func() {
		err = file.Close()
		if err != nil {
			slog.Error(fmt.Sprintf("Error occured: %s", err.Error()))
		}
	}()

	return readCandidates(file)
}

func readCandidates(src io.Reader) ([]domain.Candidate, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = len(candidateHeader)
	reader.TrimLeadingSpace = true

	var candidates []domain.Candidate
	line := 0
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		line++

		if line == 1 && strings.EqualFold(record[0], candidateHeader[0]) {
			continue
		}

		candidate, err := toCandidate(record)
		if err != nil {
			return nil, fmt.Errorf("candidate record %d: %w", line, err)
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

func toCandidate(record []string) (domain.Candidate, error) {
	score, err := strconv.ParseFloat(record[2], 64)
	if err != nil {
		return domain.Candidate{}, err
	}
	if score < 0 || score > 1 {
		return domain.Candidate{}, fmt.Errorf("score %v outside [0,1]", score)
	}

	weight, err := strconv.ParseFloat(record[3], 64)
	if err != nil {
		return domain.Candidate{}, err
	}
	if weight <= 0 {
		return domain.Candidate{}, fmt.Errorf("molecular weight %v must be positive", weight)
	}

	logP, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return domain.Candidate{}, err
	}

	return domain.Candidate{
		Id:              record[0],
		Name:            record[1],
		Score:           score,
		MolecularWeight: weight,
		LogP:            logP,
		Description:     record[5],
	}, nil
}

// Export writes candidates in the same CSV layout Read accepts.
func (r CandidateRepo) Export(w io.Writer, candidates []domain.Candidate) error {
	writer := csv.NewWriter(w)

	err := writer.Write(candidateHeader)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		record := []string{
			c.Id,
			c.Name,
			strconv.FormatFloat(c.Score, 'f', -1, 64),
			strconv.FormatFloat(c.MolecularWeight, 'f', -1, 64),
			strconv.FormatFloat(c.LogP, 'f', -1, 64),
			c.Description,
		}
		err = writer.Write(record)
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
