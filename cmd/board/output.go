package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/alfredjeanlab/board/internal/model"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printSelectors(w io.Writer, sel model.Selectors) error {
	if jsonOutput {
		return printJSON(w, sel)
	}
	fmt.Fprintf(w, "Grouping:  %s\n", sel.Grouping)
	fmt.Fprintf(w, "Ordering:  %s\n", sel.Ordering)
	return nil
}
