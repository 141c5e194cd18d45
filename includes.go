package wad

import (
	"bytes"
	"strings"
	"text/scanner"
	"unicode"
)

// includeRule describes how a definition lump references other lumps.
type includeRule struct {
	lump   string // lump holding the references
	token  string // keyword preceding a reference
	typeID string // type forced onto referenced lumps
	skip   int    // punctuation tokens between keyword and name
	close  bool   // a closing token follows the name
}

var includeRules = []includeRule{
	{lump: "DECORATE", token: "#include", typeID: "decorate"},
	{lump: "GLDEFS", token: "#include", typeID: "gldefslump"},
	{lump: "SBARINFO", token: "#include", typeID: "sbarinfo"},
	{lump: "ZMAPINFO", token: "translator", typeID: "xlat", skip: 1},
	{lump: "EMAPINFO", token: "extradata", typeID: "extradata", skip: 1},
	{lump: "EDFROOT", token: "lumpinclude", typeID: "edf", skip: 1, close: true},
}

type token struct {
	text string
	line int
}

// tokenize splits definition text into identifiers, quoted strings and single punctuation
// characters, dropping comments. Quotes are stripped from strings.
func tokenize(data []byte) []token {
	var s scanner.Scanner
	s.Init(bytes.NewReader(data))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanStrings |
		scanner.ScanRawStrings | scanner.ScanComments | scanner.SkipComments
	s.IsIdentRune = func(ch rune, i int) bool {
		switch {
		case ch == '#' && i == 0:
			return true
		case ch == '_' || ch == '\\' || ch == '[' || ch == ']':
			return true
		case ch == '.' || ch == '-':
			return i > 0
		}
		return unicode.IsLetter(ch) || unicode.IsDigit(ch)
	}
	s.Error = func(*scanner.Scanner, string) {}

	var toks []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		text := s.TokenText()
		if tok == scanner.String || tok == scanner.RawString {
			text = strings.Trim(text, "\"`")
		}
		toks = append(toks, token{text: text, line: s.Position.Line})
	}
	return toks
}

// detectIncludes forces the types of lumps referenced from definition lumps, which cannot be
// recognised from their own name or data.
func (a *Archive) detectIncludes() {
	reg := a.cfg.registry
	for _, rule := range includeRules {
		t, ok := reg.FromID(rule.typeID)
		if !ok {
			continue
		}
		for _, e := range a.FindAll(SearchOptions{Name: rule.lump, IgnoreExt: true}) {
			data, err := e.Data()
			if err != nil {
				continue
			}
			for _, name := range includedNames(tokenize(data), rule) {
				if inc := a.FindFirst(SearchOptions{Name: name, IgnoreExt: true}); inc != nil {
					logger.Debug().Str("lump", inc.name).Str("type", rule.typeID).Str("from", e.name).Msg("Included lump")
					inc.SetType(t)
				}
			}
			if !a.cfg.keepData {
				e.Unload()
			}
		}
	}
}

// includedNames returns the lump names referenced by rule in toks. Tokens that do not start a
// reference skip the rest of their line.
func includedNames(toks []token, rule includeRule) []string {
	var names []string
	for k := 0; k < len(toks); {
		if !strings.EqualFold(toks[k].text, rule.token) {
			line := toks[k].line
			for k < len(toks) && toks[k].line == line {
				k++
			}
			continue
		}
		k += 1 + rule.skip
		if k >= len(toks) {
			break
		}
		names = append(names, toks[k].text)
		k++
		if rule.close {
			k++
		}
	}
	return names
}
