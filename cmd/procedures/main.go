// Command procedures prints the API procedure catalog.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"blog/internal/config"
	"blog/internal/database"
	"blog/internal/server"

	"gopkg.in/yaml.v3"
)

func main() {
	format := flag.String("format", "yaml", "Output format: yaml or json")
	flag.Parse()

	if err := dump(os.Stdout, *format); err != nil {
		log.Fatal(err)
	}
}

// dump builds a storeless server only to read its registry.
func dump(w io.Writer, format string) error {
	srv, err := server.NewServerWithDeps(&config.Config{}, database.NewAccessorWithDB(nil), nil)
	if err != nil {
		return err
	}
	catalog := struct {
		Procedures []server.ProcedureInfo `json:"procedures" yaml:"procedures"`
	}{srv.Registry().Describe()}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(catalog); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, want yaml or json", format)
	}
}
