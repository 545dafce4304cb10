package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/examvault/api/database"
	"github.com/examvault/api/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Slugify lowercases a name and collapses whitespace runs into hyphens,
// e.g. "Cambridge International" -> "cambridge-international"
func Slugify(name string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// TaxonomyService resolves board/level/subject names to rows, creating them
// on first sight. Matching is case-insensitive; the first-seen casing is the
// one that persists.
type TaxonomyService struct {
	store database.Storage
}

// NewTaxonomyService creates a new taxonomy service
func NewTaxonomyService(store database.Storage) *TaxonomyService {
	return &TaxonomyService{store: store}
}

// ResolvedTaxonomy carries the rows a paper hangs off
type ResolvedTaxonomy struct {
	Board   *model.Board
	Level   *model.Level
	Subject *model.Subject
}

// Resolve finds or creates the board, level and subject for the given names.
// The subject is scoped to the level, so "Mathematics" at GCSE and A-Level
// are distinct rows.
func (s *TaxonomyService) Resolve(boardName, levelName, subjectName string) (*ResolvedTaxonomy, error) {
	board, err := s.resolveBoard(boardName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve board %q: %w", boardName, err)
	}

	level, err := s.resolveLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve level %q: %w", levelName, err)
	}

	subject, err := s.resolveSubject(subjectName, level.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subject %q: %w", subjectName, err)
	}

	return &ResolvedTaxonomy{Board: board, Level: level, Subject: subject}, nil
}

func (s *TaxonomyService) resolveBoard(name string) (*model.Board, error) {
	board, err := s.store.GetBoardByName(name)
	if err == nil {
		return board, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	created := &model.Board{Name: name, Slug: Slugify(name)}
	err = s.store.CreateBoard(created)
	if errors.Is(err, database.ErrDuplicate) {
		// A concurrent job won the insert; read back the winner
		return s.store.GetBoardByName(name)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TaxonomyService) resolveLevel(name string) (*model.Level, error) {
	level, err := s.store.GetLevelByName(name)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	created := &model.Level{Name: name}
	err = s.store.CreateLevel(created)
	if errors.Is(err, database.ErrDuplicate) {
		return s.store.GetLevelByName(name)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *TaxonomyService) resolveSubject(name string, levelID uint) (*model.Subject, error) {
	subject, err := s.store.GetSubjectByName(name, levelID)
	if err == nil {
		return subject, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	created := &model.Subject{Name: name, LevelID: levelID}
	err = s.store.CreateSubject(created)
	if errors.Is(err, database.ErrDuplicate) {
		return s.store.GetSubjectByName(name, levelID)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}
