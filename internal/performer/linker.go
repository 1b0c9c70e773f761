// Package performer resolves scraped performer name strings to canonical
// performer rows, using the aliases table and an optional wiki lookup source
// for name variants.
package performer

import (
	"context"
	"strings"
	"unicode"

	"aspingest/internal/normalize"
	"aspingest/logger"
)

// Directory is the subset of the store the linker needs.
type Directory interface {
	// FindPerformerByName matches the canonical name or a kana/en variant
	FindPerformerByName(ctx context.Context, name string) (int64, bool, error)

	// FindPerformerByAlias matches a registered alias string
	FindPerformerByAlias(ctx context.Context, alias string) (int64, bool, error)

	CreatePerformer(ctx context.Context, name string) (int64, error)

	AddPerformerAlias(ctx context.Context, performerID int64, alias, source string) error

	// UpdatePerformerProfile fills enrichment fields, keeping existing
	// values where the arguments are zero
	UpdatePerformerProfile(ctx context.Context, performerID int64, nameKana, nameEn string, heightCm int, cup string) error
}

// AliasSource supplies name variants for a performer from an external
// wiki-style lookup.
type AliasSource interface {
	LookupAliases(ctx context.Context, name string) ([]string, error)
}

// Profile carries the enrichment fields a wiki profile exposes. Fields left
// zero are not applied.
type Profile struct {
	NameKana string
	NameEn   string
	HeightCm int
	Cup      string
}

// ProfileSource supplies profile enrichment for a performer. An AliasSource
// may optionally implement it.
type ProfileSource interface {
	LookupProfile(ctx context.Context, name string) (Profile, error)
}

// Result summarizes one linking pass.
type Result struct {
	PerformerIDs []int64
	Created      int
	Skipped      int
}

// Linker links raw performer name strings to performer ids.
type Linker struct {
	dir  Directory
	wiki AliasSource // may be nil
	log  *logger.Logger
}

// NewLinker creates a Linker. wiki may be nil to disable enrichment.
func NewLinker(dir Directory, wiki AliasSource) *Linker {
	return &Linker{
		dir:  dir,
		wiki: wiki,
		log:  logger.ForWorker(),
	}
}

// Link resolves every name in the raw delimited string. Garbage names are
// filtered up front and counted in Result.Skipped instead of being admitted
// as performer rows.
func (l *Linker) Link(ctx context.Context, rawNames string) (Result, error) {
	var res Result
	for _, name := range SplitNames(rawNames) {
		if IsGarbageName(name) {
			l.log.Warn().Str("name", name).Msg("Skipping garbage performer name")
			res.Skipped++
			continue
		}

		id, created, err := l.resolveOne(ctx, name)
		if err != nil {
			return res, err
		}
		if created {
			res.Created++
		}
		res.PerformerIDs = appendUnique(res.PerformerIDs, id)
	}
	return res, nil
}

func (l *Linker) resolveOne(ctx context.Context, name string) (int64, bool, error) {
	if id, ok, err := l.dir.FindPerformerByName(ctx, name); err != nil {
		return 0, false, err
	} else if ok {
		return id, false, nil
	}

	if id, ok, err := l.dir.FindPerformerByAlias(ctx, name); err != nil {
		return 0, false, err
	} else if ok {
		return id, false, nil
	}

	// Consult the wiki source: the name may be a variant of a performer we
	// already know under a different spelling.
	if l.wiki != nil {
		aliases, err := l.wiki.LookupAliases(ctx, name)
		if err != nil {
			l.log.Warn().Err(err).Str("name", name).Msg("Wiki alias lookup failed")
		} else {
			for _, alias := range aliases {
				alias = normalize.NormalizeWhitespace(alias)
				if alias == "" || alias == name {
					continue
				}
				id, ok, err := l.dir.FindPerformerByName(ctx, alias)
				if err != nil {
					return 0, false, err
				}
				if !ok {
					id, ok, err = l.dir.FindPerformerByAlias(ctx, alias)
					if err != nil {
						return 0, false, err
					}
				}
				if ok {
					if err := l.dir.AddPerformerAlias(ctx, id, name, "wiki"); err != nil {
						return 0, false, err
					}
					return id, false, nil
				}
			}
		}
	}

	id, err := l.dir.CreatePerformer(ctx, name)
	if err != nil {
		return 0, false, err
	}
	if err := l.dir.AddPerformerAlias(ctx, id, name, "crawl"); err != nil {
		return 0, false, err
	}
	l.enrichProfile(ctx, id, name)
	return id, true, nil
}

// enrichProfile copies wiki profile fields onto a newly created performer.
// Failures only log: the row is already created and linked, enrichment is
// additive.
func (l *Linker) enrichProfile(ctx context.Context, id int64, name string) {
	src, ok := l.wiki.(ProfileSource)
	if !ok {
		return
	}

	p, err := src.LookupProfile(ctx, name)
	if err != nil {
		l.log.Warn().Err(err).Str("name", name).Msg("Wiki profile lookup failed")
		return
	}
	if p == (Profile{}) {
		return
	}
	if err := l.dir.UpdatePerformerProfile(ctx, id, p.NameKana, p.NameEn, p.HeightCm, p.Cup); err != nil {
		l.log.Warn().Err(err).Str("name", name).Msg("Performer profile update failed")
	}
}

// SplitNames splits a raw multi-performer string on the delimiters observed
// across sources and normalizes each part.
func SplitNames(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', '、', '/', '／', ';', '；':
			return true
		}
		return false
	})

	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := normalize.NormalizeWhitespace(p)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Particles and placeholder strings that show up as whole "names" in dirty
// source data.
var garbageNames = map[string]bool{
	"の": true, "が": true, "は": true, "と": true, "に": true,
	"他": true, "ほか": true, "素人": true, "---": true, "不明": true,
}

// IsGarbageName reports whether a split name is scraped noise rather than a
// plausible performer name: single-character particles, arrow characters
// leaking from site navigation, or strings with no letters at all.
func IsGarbageName(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return true
	}
	if garbageNames[name] {
		return true
	}

	runes := []rune(name)
	if len(runes) == 1 && unicode.In(runes[0], unicode.Hiragana, unicode.Katakana) {
		return true
	}

	hasLetter := false
	for _, r := range runes {
		if r == '→' || r == '←' || r == '⇒' || r == '⇐' {
			return true
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return !hasLetter
}

func appendUnique(ids []int64, id int64) []int64 {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
