package components

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/felixbrock/dockflow/internal/domain"
	"github.com/felixbrock/dockflow/internal/ranking"
	"github.com/felixbrock/dockflow/internal/workflow"
)

type InputView struct {
	Text  string
	Error string
}

type StructureView struct {
	SequenceId   string
	Header       string
	ResidueCount int
	Advisory     string
	Status       domain.Status
	StructureId  string
	StructureUrl string
	Error        string
}

type CandidateRow struct {
	Candidate domain.Candidate
	Stars     ranking.Rating
}

type GenerationView struct {
	Params domain.RankingParameters
	Rows   []CandidateRow
	Total  int
}

type SummaryView struct {
	Summary      workflow.Summary
	StructureUrl string
}

func Input(v InputView) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="input"><h2>Protein Sequence Input</h2>`)
		h.raw(`<form hx-post="/sequence" hx-target="#stage" hx-encoding="multipart/form-data">`)
		h.raw(`<textarea name="sequence" placeholder="&gt;Protein_Name&#10;MTTQAPTFTQPLQSVVVLEGSTATFEAHISGFPVPEVSWFRDGQ">`)
		h.text(v.Text)
		h.raw(`</textarea>`)
		h.raw(`<input type="file" name="file" accept=".fasta,.txt">`)
		if v.Error != "" {
			h.raw(`<div class="alert error">`)
			h.text(v.Error)
			h.raw(`</div>`)
		}
		h.raw(`<button type="submit">Submit Sequence</button></form></section>`)
	})
}

func Structure(v StructureView) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="structure"><h2>Structure Analysis</h2><dl><dt>Sequence</dt><dd>`)
		h.text(v.SequenceId)
		h.raw(`</dd><dt>Residues</dt><dd>`)
		h.text(strconv.Itoa(v.ResidueCount))
		h.raw(`</dd></dl>`)
		if v.Advisory != "" {
			h.raw(`<p class="advisory">`)
			h.text(v.Advisory)
			h.raw(`</p>`)
		}

		switch v.Status {
		case domain.StatusPending:
			h.child(Loading("Predicting protein structure..."))
		case domain.StatusFailed:
			h.raw(`<div class="alert error">`)
			h.text(v.Error)
			h.raw(`</div><button hx-post="/structure/retry" hx-target="#stage">Re-run Prediction</button>`)
		case domain.StatusResolved:
			h.raw(`<p>Structure <code>`)
			h.text(v.StructureId)
			h.raw(`</code></p><div id="viewport" data-structure-url="`)
			h.text(v.StructureUrl)
			h.raw(`"></div><a download href="`)
			h.text(v.StructureUrl)
			h.raw(`">Download PDB</a>`)
			h.raw(`<button hx-post="/generation" hx-target="#stage">Proceed to Molecule Generation</button>`)
		}
		h.raw(`</section>`)
	})
}

func Generation(v GenerationView) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="generation"><h2>Generated Molecules</h2>`)
		h.raw(`<form hx-get="/candidates" hx-target="#stage" hx-trigger="change">`)
		h.raw(`<label>Score Range <input type="number" name="min" min="0" max="1" step="0.01" value="`)
		h.text(formatFloat(v.Params.ScoreMin, 2))
		h.raw(`"> - <input type="number" name="max" min="0" max="1" step="0.01" value="`)
		h.text(formatFloat(v.Params.ScoreMax, 2))
		h.raw(`"></label><select name="sort">`)
		for _, opt := range []struct {
			key   domain.SortKey
			label string
		}{
			{domain.SortByScore, "Sort by Score"},
			{domain.SortByWeight, "Sort by Molecular Weight"},
			{domain.SortByLogP, "Sort by LogP"},
		} {
			selected := ""
			if opt.key == v.Params.SortKey {
				selected = " selected"
			}
			h.rawf(`<option value="%s"%s>`, templ.EscapeString(string(opt.key)), selected)
			h.text(opt.label)
			h.raw(`</option>`)
		}
		h.raw(`</select></form>`)

		h.raw(`<p class="count">`)
		h.textf("%d of %d candidates", len(v.Rows), v.Total)
		h.raw(`</p><ul class="candidates">`)
		for _, row := range v.Rows {
			c := row.Candidate
			h.raw(`<li class="candidate" data-id="`)
			h.text(c.Id)
			h.raw(`"><h3>`)
			h.text(c.Name)
			h.raw(`</h3>`)
			h.child(Stars(row.Stars))
			h.raw(`<p>`)
			h.textf("Score %s · MW %s g/mol · LogP %s", formatFloat(c.Score, 2), formatFloat(c.MolecularWeight, 1), formatFloat(c.LogP, 1))
			h.raw(`</p><p>`)
			h.text(c.Description)
			h.raw(`</p></li>`)
		}
		h.raw(`</ul><button hx-post="/summary" hx-target="#stage">View Results Summary</button></section>`)
	})
}

func Stars(r ranking.Rating) templ.Component {
	return component(func(h *html) {
		h.raw(`<span class="stars">`)
		for i := 0; i < r.Full; i++ {
			h.raw(`<i class="star full"></i>`)
		}
		if r.Half {
			h.raw(`<i class="star half"></i>`)
		}
		for i := 0; i < r.Empty; i++ {
			h.raw(`<i class="star empty"></i>`)
		}
		h.raw(`</span>`)
	})
}

func Summary(v SummaryView) templ.Component {
	return component(func(h *html) {
		s := v.Summary
		h.raw(`<section class="summary"><h2>Results Summary</h2><div class="stats">`)
		stat := func(label string, value string) {
			h.raw(`<div class="stat"><p class="value">`)
			h.text(value)
			h.raw(`</p><p class="label">`)
			h.text(label)
			h.raw(`</p></div>`)
		}
		stat("Sequence", s.SequenceId)
		stat("Structure", s.StructureId)
		stat("Molecules Generated", strconv.Itoa(s.CandidateCount))
		stat("Molecules In Range", strconv.Itoa(s.RankedCount))
		stat("Top Score", formatFloat(s.TopScore, 2))
		stat("Avg. Mol. Weight", formatFloat(s.MeanMolecularWeight, 1))
		h.raw(`</div><h3>Score Distribution</h3><ul class="distribution">`)
		for _, b := range s.Distribution {
			h.rawf(`<li data-count="%d">`, b.Count)
			h.textf("%s-%s: %d", formatFloat(b.Low, 2), formatFloat(b.High, 2), b.Count)
			h.raw(`</li>`)
		}
		h.raw(`</ul><h3>Top Molecules</h3><ol class="top">`)
		for _, c := range s.Top {
			h.raw(`<li>`)
			h.textf("%s (%s)", c.Name, formatFloat(c.Score, 2))
			h.raw(`</li>`)
		}
		h.raw(`</ol><a href="`)
		h.text(v.StructureUrl)
		h.raw(`">Structure file</a> <a href="/summary/export">Export CSV</a>`)
		h.raw(`<button hx-post="/reset" hx-target="#stage">Start New Session</button></section>`)
	})
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
