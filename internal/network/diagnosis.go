package network

import (
	"fmt"

	"github.com/Gianlz/MedBayes/internal/bayes"
)

const DiagnosisName = "diagnosis"

// Variable names of the diagnosis network.
const (
	Disease  = "Disease"
	Season   = "Season"
	Fever    = "Fever"
	Cough    = "Cough"
	Sneezing = "Sneezing"
)

// Disease states, by value code.
const (
	DiseaseNone    = "None"
	DiseaseFlu     = "Flu"
	DiseaseAllergy = "Allergy"
)

var diagnosisStates = map[string][]string{
	Disease:  {DiseaseNone, DiseaseFlu, DiseaseAllergy},
	Season:   {"Winter", "Spring", "Summer", "Autumn"},
	Fever:    {"No", "Yes"},
	Cough:    {"No", "Yes"},
	Sneezing: {"No", "Yes"},
}

// Portuguese labels accepted from the symptom form, plus boolean spellings.
var diagnosisAliases = map[string]map[string]string{
	Disease:  {"nenhuma": DiseaseNone, "sem doença": DiseaseNone, "gripe": DiseaseFlu, "alergia": DiseaseAllergy},
	Season:   {"inverno": "Winter", "primavera": "Spring", "verão": "Summer", "verao": "Summer", "outono": "Autumn", "fall": "Autumn"},
	Fever:    {"não": "No", "nao": "No", "sim": "Yes", "false": "No", "true": "Yes"},
	Cough:    {"não": "No", "nao": "No", "sim": "Yes", "false": "No", "true": "Yes"},
	Sneezing: {"não": "No", "nao": "No", "sim": "Yes", "false": "No", "true": "Yes"},
}

type cptSpec struct {
	variable string
	parents  []string
	table    [][]float64
}

// Diagnosis builds the disease/season/symptom network.
//
//	Disease -> Fever, Disease -> Cough, Disease -> Sneezing, Season -> Sneezing
func Diagnosis() (*Network, error) {
	m := bayes.NewModel()

	for _, v := range []string{Disease, Season, Fever, Cough, Sneezing} {
		if err := m.DeclareVariable(v, len(diagnosisStates[v])); err != nil {
			return nil, err
		}
	}

	cpts := []cptSpec{
		{Disease, nil, [][]float64{{0.7}, {0.2}, {0.1}}},
		{Season, nil, [][]float64{{0.25}, {0.25}, {0.25}, {0.25}}},
		{Fever, []string{Disease}, [][]float64{
			{0.95, 0.3, 0.8},
			{0.05, 0.7, 0.2},
		}},
		{Cough, []string{Disease}, [][]float64{
			{0.8, 0.2, 0.9},
			{0.2, 0.8, 0.1},
		}},
		// Columns: (None, Flu, Allergy) x (Winter, Spring, Summer, Autumn).
		{Sneezing, []string{Disease, Season}, [][]float64{
			{0.9, 0.6, 0.7, 0.8, 0.3, 0.1, 0.2, 0.2, 0.2, 0.05, 0.1, 0.1},
			{0.1, 0.4, 0.3, 0.2, 0.7, 0.9, 0.8, 0.8, 0.8, 0.95, 0.9, 0.9},
		}},
	}
	for _, c := range cpts {
		if err := m.AttachCPT(c.variable, c.parents, c.table); err != nil {
			return nil, err
		}
	}

	if _, err := m.Validate(); err != nil {
		return nil, fmt.Errorf("diagnosis network: %w", err)
	}

	return New(DiagnosisName, "Disease posterior from fever, cough, sneezing and season", m, diagnosisStates, diagnosisAliases)
}
