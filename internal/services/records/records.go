// Package records хранит личные рекорды клиентов (RM и PR) и сравнивает
// новый рекорд с рекордами остальных клиентов по тому же упражнению.
//
// Рекорды клиента лежат в одном документе personalRecords/{clientId}
// с массивами rms и prs.
package records

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/observability"
	"github.com/magabrotheeeer/coach-portal/internal/store"
)

const collection = "personalRecords"

var (
	// ErrUnknownKind возвращается для вида рекорда кроме RM и PR.
	ErrUnknownKind = errors.New("unknown record kind")
	// ErrRecordNotFound возвращается, если рекорда с таким id нет.
	ErrRecordNotFound = errors.New("record not found")
)

// Store - часть хранилища, нужная сервису.
type Store interface {
	Get(ctx context.Context, p store.Path) (store.Document, error)
	Query(ctx context.Context, q store.Query) ([]store.Document, error)
	Merge(ctx context.Context, p store.Path, data map[string]any) error
}

// SaveResult - итог сохранения. Если Saved false, в Peers лежат рекорды,
// которые не хуже нового, и запись не сделана.
type SaveResult struct {
	Saved  bool                  `json:"saved"`
	Record models.PersonalRecord `json:"record"`
	Peers  []models.Comparison   `json:"peers,omitempty"`
}

// Service управляет личными рекордами.
type Service struct {
	store Store
	keyer daykey.Keyer
	log   *slog.Logger
	newID func() string
}

// NewService создаёт Service.
func NewService(st Store, keyer daykey.Keyer, log *slog.Logger) *Service {
	return &Service{
		store: st,
		keyer: keyer,
		log:   log,
		newID: uuid.NewString,
	}
}

func field(kind models.RecordKind) string {
	if kind == models.KindPR {
		return "prs"
	}
	return "rms"
}

func checkKind(kind models.RecordKind) error {
	if kind != models.KindRM && kind != models.KindPR {
		return fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return nil
}

// CompareAgainstPeers ищет у остальных клиентов рекорды того же упражнения,
// равные новому или лучше него. От каждого клиента берётся первая
// подходящая запись. Значение без числа или времени даёт пустой результат.
// Клиент, чьи данные не читаются, пропускается.
func (s *Service) CompareAgainstPeers(ctx context.Context, clientID string, rec models.PersonalRecord, kind models.RecordKind) ([]models.Comparison, error) {
	const op = "records.CompareAgainstPeers"
	if err := checkKind(kind); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log := s.log.With(sl.Op(op), slog.String("client_id", clientID), slog.String("kind", string(kind)))

	candidate, ok := score(kind, rec.Value)
	if !ok {
		observability.RecordComparison(string(kind), "skipped")
		log.Debug("record value is not comparable", slog.String("value", rec.Value))
		return []models.Comparison{}, nil
	}
	exercise := NormalizeExercise(rec.Exercise)

	docs, err := s.store.Query(ctx, store.Query{Collection: collection})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := []models.Comparison{}
	for _, doc := range docs {
		peerID := doc.ID()
		if peerID == clientID {
			continue
		}
		var peer models.PersonalRecords
		if err := doc.Decode(&peer); err != nil {
			observability.RecordPeerSkipped()
			log.Warn("skipping peer with malformed records", slog.String("peer_id", peerID), sl.Err(err))
			continue
		}
		match, found := firstMatch(kind, peer.Of(kind), exercise, candidate)
		if !found {
			continue
		}
		name, err := s.clientName(ctx, peerID)
		if err != nil {
			observability.RecordPeerSkipped()
			log.Warn("skipping unreadable peer", slog.String("peer_id", peerID), sl.Err(err))
			continue
		}
		result = append(result, models.Comparison{ClientID: peerID, ClientName: name, Record: match})
	}

	outcome := "clear"
	if len(result) > 0 {
		outcome = "matched"
	}
	observability.RecordComparison(string(kind), outcome)
	return result, nil
}

func firstMatch(kind models.RecordKind, recs []models.PersonalRecord, exercise string, candidate float64) (models.PersonalRecord, bool) {
	for _, r := range recs {
		if NormalizeExercise(r.Exercise) != exercise {
			continue
		}
		v, ok := score(kind, r.Value)
		if ok && equalOrBetter(kind, v, candidate) {
			return r, true
		}
	}
	return models.PersonalRecord{}, false
}

// clientName возвращает имя клиента; отсутствие документа даёт пустое имя.
func (s *Service) clientName(ctx context.Context, clientID string) (string, error) {
	doc, err := s.store.Get(ctx, store.Doc("clients", clientID))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var c models.Client
	if err := doc.Decode(&c); err != nil {
		return "", err
	}
	return c.Name, nil
}

// List возвращает рекорды клиента.
func (s *Service) List(ctx context.Context, clientID string) (models.PersonalRecords, error) {
	const op = "records.List"
	recs, err := s.load(ctx, clientID)
	if err != nil {
		return models.PersonalRecords{}, fmt.Errorf("%s: %w", op, err)
	}
	return recs, nil
}

func (s *Service) load(ctx context.Context, clientID string) (models.PersonalRecords, error) {
	recs := models.PersonalRecords{}
	doc, err := s.store.Get(ctx, store.Doc(collection, clientID))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return recs, err
	}
	if err == nil {
		if err := doc.Decode(&recs); err != nil {
			return recs, err
		}
	}
	if recs.RMs == nil {
		recs.RMs = []models.PersonalRecord{}
	}
	if recs.PRs == nil {
		recs.PRs = []models.PersonalRecord{}
	}
	return recs, nil
}

// write сохраняет только массив нужного вида.
func (s *Service) write(ctx context.Context, clientID string, kind models.RecordKind, list []models.PersonalRecord) error {
	var recs models.PersonalRecords
	if kind == models.KindPR {
		recs.PRs = list
	} else {
		recs.RMs = list
	}
	data, err := store.Encode(recs)
	if err != nil {
		return err
	}
	name := field(kind)
	return s.store.Merge(ctx, store.Doc(collection, clientID), map[string]any{name: data[name]})
}

// Save сравнивает рекорд с остальными клиентами и сохраняет его.
// Если нашлись рекорды не хуже и force не задан, ничего не пишет и
// возвращает их. Ошибка сравнения не мешает сохранению. Запись с
// заполненным ID заменяет существующую.
func (s *Service) Save(ctx context.Context, clientID string, kind models.RecordKind, in models.RecordInput, force bool) (SaveResult, error) {
	const op = "records.Save"
	if err := checkKind(kind); err != nil {
		return SaveResult{}, fmt.Errorf("%s: %w", op, err)
	}

	rec, err := s.newRecord(in)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%s: %w", op, err)
	}
	res := SaveResult{Record: rec}

	if !force {
		peers, err := s.CompareAgainstPeers(ctx, clientID, rec, kind)
		if err != nil {
			s.log.Warn("comparison failed, saving without advisory",
				slog.String("client_id", clientID), sl.Err(err))
		}
		if len(peers) > 0 {
			res.Peers = peers
			return res, nil
		}
	}

	recs, err := s.load(ctx, clientID)
	if err != nil {
		return SaveResult{}, fmt.Errorf("%s: %w", op, err)
	}
	list := recs.Of(kind)
	if in.ID == "" {
		list = append(list, rec)
	} else {
		replaced := false
		for i := range list {
			if list[i].ID == in.ID {
				if in.Date == "" {
					rec.Date = list[i].Date
				}
				list[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			return SaveResult{}, fmt.Errorf("%s: %s: %w", op, in.ID, ErrRecordNotFound)
		}
	}
	if err := s.write(ctx, clientID, kind, list); err != nil {
		return SaveResult{}, fmt.Errorf("%s: %w", op, err)
	}
	res.Record = rec
	s.log.Info("personal record saved",
		slog.String("client_id", clientID),
		slog.String("kind", string(kind)),
		slog.String("record_id", rec.ID))
	res.Saved = true
	return res, nil
}

func (s *Service) newRecord(in models.RecordInput) (models.PersonalRecord, error) {
	date := s.keyer.Time()
	if in.Date != "" {
		d, err := daykey.ParseDate(in.Date, s.keyer.Location)
		if err != nil {
			return models.PersonalRecord{}, err
		}
		date = d
	}
	id := in.ID
	if id == "" {
		id = s.newID()
	}
	return models.PersonalRecord{
		ID:        id,
		Exercise:  strings.TrimSpace(in.Exercise),
		Value:     strings.TrimSpace(in.Value),
		Implement: strings.TrimSpace(in.Implement),
		Date:      daykey.FromMillis(date.UnixMilli()),
	}, nil
}

// Delete убирает рекорд из массива по id.
func (s *Service) Delete(ctx context.Context, clientID string, kind models.RecordKind, recordID string) error {
	const op = "records.Delete"
	if err := checkKind(kind); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	recs, err := s.load(ctx, clientID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	list := recs.Of(kind)
	kept := make([]models.PersonalRecord, 0, len(list))
	for _, r := range list {
		if r.ID != recordID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(list) {
		return fmt.Errorf("%s: %s: %w", op, recordID, ErrRecordNotFound)
	}
	if err := s.write(ctx, clientID, kind, kept); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("personal record deleted",
		slog.String("client_id", clientID),
		slog.String("kind", string(kind)),
		slog.String("record_id", recordID))
	return nil
}
