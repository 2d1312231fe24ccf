package ai

import (
	"fmt"
	"strings"
)

const expertSystemPrompt = "You are an expert in structural biology, chemoinformatics and patents"

const markupInstructions = "Here is a fragment of a patent. It was autorecognized, so it might have some typos. " +
	"Your task is to define if this fragment has any data on molecule binding with protein. " +
	"Pay special attention to values like: Ki (nM), IC50 (nM), Kd (nM), EC50 (nM). " +
	"You have to return your verdict as a valid json string has_binding_info: true|false. " +
	"Only json, not other data! Do not use markdown formatting! "

const bindingInstructions = `You are an expert cheminformatics and pharmacology data extractor. Your task is to analyze patent text and extract structured binding data.

INSTRUCTIONS:
1. Identify ligand mentions (chemical names, references to chemical names such as 'example' or 'compound')
2. Determine the ligand name
3. Determine the protein name
4. Extract binding constants: Ki, IC50, Kd, EC50 (in nM)
5. Extract the assay description
6. Give the ligand SMILES and protein FASTA only when you are certain of them

RETURN ONLY A VALID JSON OBJECT with these keys:

"Ki_nM": "value or null",
"IC50_nM": "value or null",
"Kd_nM": "value or null",
"EC50_nM": "value or null",
"assay_description": "brief description of how binding was measured",
"ligand_name": "identified ligand name",
"ligand_SMILES": "SMILES notation or null",
"protein_name": "identified protein name",
"protein_FASTA": "FASTA sequence or null"

CRITICAL RULES:
- Only extract values that are explicitly stated with units (nM, μM, etc.)
- Convert units appropriately (1 μM = 1000 nM)
- Be conservative, only report high confidence data
- Return ONLY the JSON, no other text
- DO NOT USE MARKDOWN
`

// BindingConstants are the keys of BindingTask results that carry measured values.
var BindingConstants = []string{"Ki_nM", "IC50_nM", "Kd_nM", "EC50_nM"}

// MarkupTask asks whether a chunk contains ligand-protein binding data.
func MarkupTask() Task {
	return Task{
		Name:         "markup",
		SystemPrompt: expertSystemPrompt,
		Instructions: markupInstructions,
		MaxTokens:    75,
		Temperature:  0.5,
		Relevance:    hasBindingInfoFlag,
	}
}

// BindingTask extracts binding constants, assay, ligand and protein from a chunk.
func BindingTask() Task {
	return Task{
		Name:         "binding",
		SystemPrompt: expertSystemPrompt,
		Instructions: bindingInstructions,
		MaxTokens:    4096,
		Temperature:  0,
		Relevance:    anyBindingConstant,
	}
}

func hasBindingInfoFlag(fields map[string]any) (bool, error) {
	v, ok := fields["has_binding_info"]
	if !ok {
		return false, fmt.Errorf("%w: missing has_binding_info", ErrMalformedResponse)
	}
	switch flag := v.(type) {
	case bool:
		return flag, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(flag)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: has_binding_info is %T, not a boolean", ErrMalformedResponse, v)
}

func anyBindingConstant(fields map[string]any) (bool, error) {
	present := false
	for _, key := range BindingConstants {
		v, ok := fields[key]
		if !ok {
			continue
		}
		present = present || !isNullValue(v)
	}
	return present, nil
}

// isNullValue treats JSON null and the strings models write for it as absent.
func isNullValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "", "null", "none", "n/a", "value or null":
			return true
		}
	}
	return false
}
