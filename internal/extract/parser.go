package extract

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/kadirbelkuyu/pglifecycle/internal/inventory"
)

var (
	tocEntryPattern   = regexp.MustCompile(`^-- TOC entry (\d+) `)
	namePattern       = regexp.MustCompile(`^-- (?:Data for )?Name: (.*); Type: (.*); Schema: (.*); Owner: (.*?)(?:; Tablespace: .*)?$`)
	dumpedFromPattern = regexp.MustCompile(`^-- Dumped from database version (\S+)`)
	dumpedByPattern   = regexp.MustCompile(`^-- Dumped by pg_dump version (\S+)`)
	sessionPattern    = regexp.MustCompile(`^(?:SET [a-z_.]+ = .*|SELECT pg_catalog\.set_config\(.*\));$`)
)

const (
	dependenciesPrefix = "-- Dependencies:"
	dumpCompleteLine   = "-- PostgreSQL database dump complete"
)

type parseState int

const (
	statePreamble parseState = iota
	stateHeader
	stateBody
	stateDone
)

// ParsePlain reads the plain-text output of `pg_dump --verbose` and returns
// its inventory. Entries are delimited by the "TOC entry" comment blocks
// pg_dump writes in verbose mode. The fixed session settings pg_dump emits
// before the first entry become ENCODING, STDSTRINGS and SEARCHPATH entries
// with ids above the highest dumped id.
func ParsePlain(r io.Reader) (*inventory.Inventory, error) {
	p := &plainParser{inv: &inventory.Inventory{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}
	p.finish()

	p.appendDirectives()
	p.inv.Normalize()
	if _, err := p.inv.Index(); err != nil {
		return nil, err
	}
	return p.inv, nil
}

type plainParser struct {
	inv        *inventory.Inventory
	state      parseState
	current    *inventory.Entry
	body       []string
	// held collects session settings seen after the last statement of the
	// current entry, with the blank and comment lines around them.
	held       []string
	directives []directive
}

type directive struct {
	kind inventory.Kind
	name string
	stmt string
}

func (p *plainParser) line(text string) error {
	if strings.HasPrefix(text, `\restrict`) || strings.HasPrefix(text, `\unrestrict`) {
		return nil
	}

	if m := tocEntryPattern.FindStringSubmatch(text); m != nil {
		carried := p.finish()
		id, err := strconv.Atoi(m[1])
		if err != nil {
			return fmt.Errorf("invalid TOC entry id %q: %w", m[1], err)
		}
		p.current = &inventory.Entry{ID: id}
		p.body = carried
		p.state = stateHeader
		return nil
	}

	switch p.state {
	case statePreamble:
		p.preamble(text)
	case stateHeader:
		return p.header(text)
	case stateBody:
		if text == dumpCompleteLine {
			p.finish()
			p.state = stateDone
			return nil
		}
		p.bodyLine(text)
	}
	return nil
}

// bodyLine holds session settings until a later statement shows they are
// part of the current entry. pg_dump writes the settings an entry needs,
// such as default_tablespace, right before that entry's TOC block.
func (p *plainParser) bodyLine(text string) {
	trimmed := strings.TrimSpace(text)
	switch {
	case sessionPattern.MatchString(trimmed):
		p.held = append(p.held, text)
	case len(p.held) > 0 && (trimmed == "" || strings.HasPrefix(trimmed, "--")):
		p.held = append(p.held, text)
	default:
		p.body = append(p.body, p.held...)
		p.body = append(p.body, text)
		p.held = nil
	}
}

func (p *plainParser) preamble(text string) {
	if m := dumpedFromPattern.FindStringSubmatch(text); m != nil {
		p.inv.ServerVersion = m[1]
		return
	}
	if m := dumpedByPattern.FindStringSubmatch(text); m != nil {
		p.inv.DumpVersion = m[1]
		return
	}

	switch {
	case strings.HasPrefix(text, "SET client_encoding"):
		p.directives = append(p.directives, directive{kind: inventory.KindEncoding, name: "ENCODING", stmt: text})
	case strings.HasPrefix(text, "SET standard_conforming_strings"):
		p.directives = append(p.directives, directive{kind: inventory.KindStdStrings, name: "STDSTRINGS", stmt: text})
	case strings.Contains(text, "set_config('search_path'"):
		p.directives = append(p.directives, directive{kind: inventory.KindSearchPath, name: "SEARCHPATH", stmt: text})
	}
}

func (p *plainParser) header(text string) error {
	switch {
	case strings.HasPrefix(text, dependenciesPrefix):
		for _, field := range strings.Fields(strings.TrimPrefix(text, dependenciesPrefix)) {
			dep, err := strconv.Atoi(field)
			if err != nil {
				return fmt.Errorf("invalid dependency %q for entry %d: %w", field, p.current.ID, err)
			}
			p.current.Dependencies = append(p.current.Dependencies, dep)
		}
	case namePattern.MatchString(text):
		m := namePattern.FindStringSubmatch(text)
		p.current.Name = m[1]
		p.current.Kind = inventory.ParseKind(m[2])
		p.current.Namespace = dashToEmpty(m[3])
		p.current.Owner = dashToEmpty(m[4])
	case text == "--":
		if p.current.Kind == "" {
			return fmt.Errorf("TOC entry %d has no Name line", p.current.ID)
		}
		p.state = stateBody
	}
	return nil
}

// finish closes the entry being read, dropping the comment lines pg_dump
// puts between entries, such as separators and the completion timestamp.
// It returns the held session settings, which belong to the next entry.
func (p *plainParser) finish() []string {
	var carried []string
	for _, line := range p.held {
		if sessionPattern.MatchString(strings.TrimSpace(line)) {
			carried = append(carried, line)
		}
	}
	p.held = nil

	if p.current == nil {
		return carried
	}
	body := p.body
	for len(body) > 0 {
		last := strings.TrimSpace(body[len(body)-1])
		if last != "" && !strings.HasPrefix(last, "--") {
			break
		}
		body = body[:len(body)-1]
	}
	for len(body) > 0 && strings.TrimSpace(body[0]) == "" {
		body = body[1:]
	}

	p.current.Definition = strings.Join(body, "\n")
	p.inv.Entries = append(p.inv.Entries, p.current)
	p.current = nil
	p.body = nil
	return carried
}

func (p *plainParser) appendDirectives() {
	next := p.inv.MaxID() + 1
	entries := make([]*inventory.Entry, 0, len(p.directives)+len(p.inv.Entries))
	for _, d := range p.directives {
		entries = append(entries, &inventory.Entry{
			ID:         next,
			Kind:       d.kind,
			Name:       d.name,
			Section:    inventory.SectionPreData,
			Definition: d.stmt,
		})
		next++
	}
	p.inv.Entries = append(entries, p.inv.Entries...)
}

func dashToEmpty(value string) string {
	value = strings.TrimSpace(value)
	if value == "-" {
		return ""
	}
	return value
}
