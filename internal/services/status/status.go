// Package status хранит платежи и абонемент клиента и поддерживает
// согласованным закэшированный в документе клиента статус.
//
// Каждая мутация пересчитывает статус и пишет его тем же Commit, что и
// саму мутацию. При смене статуса после записи публикуется событие
// client.status_changed.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/observability"
	"github.com/magabrotheeeer/coach-portal/internal/store"
)

var (
	// ErrClientNotFound возвращается, если документа клиента нет.
	ErrClientNotFound = errors.New("client not found")
	// ErrPaymentNotFound возвращается при удалении несуществующего платежа.
	ErrPaymentNotFound = errors.New("payment not found")
)

// Store - часть хранилища, нужная сервису.
type Store interface {
	Get(ctx context.Context, p store.Path) (store.Document, error)
	Query(ctx context.Context, q store.Query) ([]store.Document, error)
	Commit(ctx context.Context, writes ...store.Write) error
}

// Publisher отправляет события о клиентах.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service управляет платежами и статусом абонемента.
type Service struct {
	store     Store
	publisher Publisher
	keyer     daykey.Keyer
	log       *slog.Logger
	newID     func() string
}

// NewService создаёт Service.
func NewService(st Store, publisher Publisher, keyer daykey.Keyer, log *slog.Logger) *Service {
	return &Service{
		store:     st,
		publisher: publisher,
		keyer:     keyer,
		log:       log,
		newID:     uuid.NewString,
	}
}

type snapshot struct {
	client   models.Client
	payments []models.Payment
}

func clientPath(clientID string) store.Path {
	return store.Doc("clients", clientID)
}

func paymentsCollection(clientID string) string {
	return store.Collection("clients", clientID, "payments")
}

// load читает клиента и все его платежи.
func (s *Service) load(ctx context.Context, clientID string) (snapshot, error) {
	doc, err := s.store.Get(ctx, clientPath(clientID))
	if errors.Is(err, store.ErrNotFound) {
		return snapshot{}, ErrClientNotFound
	}
	if err != nil {
		return snapshot{}, err
	}
	var snap snapshot
	if err := doc.Decode(&snap.client); err != nil {
		return snapshot{}, err
	}
	snap.client.ID = clientID

	snap.payments, err = s.payments(ctx, clientID, store.Query{Collection: paymentsCollection(clientID)})
	if err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// payments читает платежи. Платёж с повреждёнными полями всё равно
// учитывается: для статуса важен сам факт оплаты.
func (s *Service) payments(ctx context.Context, clientID string, q store.Query) ([]models.Payment, error) {
	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Payment, 0, len(docs))
	for _, doc := range docs {
		var p models.Payment
		if err := doc.Decode(&p); err != nil {
			s.log.Warn("malformed payment record",
				slog.String("client_id", clientID),
				slog.String("payment_id", doc.ID()),
				sl.Err(err))
			p = models.Payment{}
		}
		p.ID = doc.ID()
		out = append(out, p)
	}
	return out, nil
}

// commit пересчитывает статус, пишет его вместе с writes и публикует
// событие, если статус изменился.
func (s *Service) commit(ctx context.Context, snap snapshot, writes ...store.Write) (models.SubscriptionStatus, error) {
	now := s.keyer.Time()
	status := CalculateStatus(snap.client.SubscriptionEndDate, snap.payments, snap.client.IsPaymentExempt, now)
	observability.RecordStatus(string(status))

	if len(writes) == 0 && status == snap.client.Status {
		return status, nil
	}
	writes = append(writes, store.MergeWrite(clientPath(snap.client.ID), map[string]any{
		"status":          string(status),
		"statusUpdatedAt": now.UTC().Format(time.RFC3339),
	}))
	if err := s.store.Commit(ctx, writes...); err != nil {
		return "", err
	}

	if status != snap.client.Status {
		s.notify(ctx, models.StatusChangedEvent{
			ClientID:  snap.client.ID,
			Previous:  snap.client.Status,
			Current:   status,
			ChangedAt: now,
		})
	}
	return status, nil
}

func (s *Service) notify(ctx context.Context, event models.StatusChangedEvent) {
	log := s.log.With(slog.String("client_id", event.ClientID))
	if err := s.publisher.Publish(ctx, rabbitmq.RoutingStatusChanged, event); err != nil {
		log.Warn("failed to publish status change", sl.Err(err))
		return
	}
	log.Info("subscription status changed",
		slog.String("previous", string(event.Previous)),
		slog.String("current", string(event.Current)))
}

// newPayment строит платёж из запроса. Пустая дата означает сегодня.
func (s *Service) newPayment(in models.PaymentInput) (models.Payment, error) {
	date := s.keyer.Time()
	if in.Date != "" {
		d, err := daykey.ParseDate(in.Date, s.keyer.Location)
		if err != nil {
			return models.Payment{}, err
		}
		date = d
	}
	p := models.Payment{
		ID:          s.newID(),
		Date:        daykey.FromTime(date),
		Amount:      in.Amount,
		Method:      models.PaymentMethod(in.Method),
		Notes:       in.Notes,
		OtherMethod: in.OtherMethod,
	}
	if in.Frequency != "" {
		f := models.PaymentFrequency(in.Frequency)
		p.Frequency = &f
	}
	return p, nil
}

func (s *Service) paymentWrite(clientID string, p models.Payment) (store.Write, error) {
	data, err := store.Encode(p)
	if err != nil {
		return store.Write{}, err
	}
	delete(data, "id")
	return store.SetWrite(clientPath(clientID).Child("payments", p.ID), data), nil
}

// AddPayment сохраняет платёж и пересчитывает статус.
func (s *Service) AddPayment(ctx context.Context, clientID string, in models.PaymentInput) (models.Payment, models.SubscriptionStatus, error) {
	const op = "status.AddPayment"

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return models.Payment{}, "", fmt.Errorf("%s: %w", op, err)
	}
	p, err := s.newPayment(in)
	if err != nil {
		return models.Payment{}, "", fmt.Errorf("%s: %w", op, err)
	}
	w, err := s.paymentWrite(clientID, p)
	if err != nil {
		return models.Payment{}, "", fmt.Errorf("%s: %w", op, err)
	}
	snap.payments = append(snap.payments, p)

	status, err := s.commit(ctx, snap, w)
	if err != nil {
		return models.Payment{}, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment added", slog.String("client_id", clientID), slog.String("payment_id", p.ID))
	return p, status, nil
}

// DeletePayment удаляет платёж и пересчитывает статус.
func (s *Service) DeletePayment(ctx context.Context, clientID, paymentID string) (models.SubscriptionStatus, error) {
	const op = "status.DeletePayment"

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	remaining := make([]models.Payment, 0, len(snap.payments))
	found := false
	for _, p := range snap.payments {
		if p.ID == paymentID {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return "", fmt.Errorf("%s: %s: %w", op, paymentID, ErrPaymentNotFound)
	}
	snap.payments = remaining

	status, err := s.commit(ctx, snap, store.DeleteWrite(clientPath(clientID).Child("payments", paymentID)))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment deleted", slog.String("client_id", clientID), slog.String("payment_id", paymentID))
	return status, nil
}

// RegisterSubscription одним Commit меняет дату окончания, признак
// освобождения от оплаты и добавляет платёж; любое поле можно опустить.
// Пустая EndDate снимает дату окончания.
func (s *Service) RegisterSubscription(ctx context.Context, clientID string, in models.SubscriptionInput) (*models.Payment, models.SubscriptionStatus, error) {
	const op = "status.RegisterSubscription"

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	fields := make(map[string]any)
	if in.EndDate != nil {
		if *in.EndDate == "" {
			fields["subscriptionEndDate"] = nil
			snap.client.SubscriptionEndDate = nil
		} else {
			if _, err := daykey.ParseDate(*in.EndDate, s.keyer.Location); err != nil {
				return nil, "", fmt.Errorf("%s: %w", op, err)
			}
			end := daykey.FromText(*in.EndDate)
			fields["subscriptionEndDate"] = end.Text
			snap.client.SubscriptionEndDate = &end
		}
	}
	if in.IsPaymentExempt != nil {
		fields["isPaymentExempt"] = *in.IsPaymentExempt
		snap.client.IsPaymentExempt = *in.IsPaymentExempt
	}

	var writes []store.Write
	if len(fields) > 0 {
		writes = append(writes, store.MergeWrite(clientPath(clientID), fields))
	}
	var payment *models.Payment
	if in.Payment != nil {
		p, err := s.newPayment(*in.Payment)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		w, err := s.paymentWrite(clientID, p)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", op, err)
		}
		writes = append(writes, w)
		snap.payments = append(snap.payments, p)
		payment = &p
	}

	status, err := s.commit(ctx, snap, writes...)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("subscription registered", slog.String("client_id", clientID), slog.String("status", string(status)))
	return payment, status, nil
}

// SetEndDate меняет дату окончания абонемента; пустая строка снимает её.
func (s *Service) SetEndDate(ctx context.Context, clientID, endDate string) (models.SubscriptionStatus, error) {
	_, status, err := s.RegisterSubscription(ctx, clientID, models.SubscriptionInput{EndDate: &endDate})
	return status, err
}

// SetExempt меняет признак освобождения от оплаты.
func (s *Service) SetExempt(ctx context.Context, clientID string, exempt bool) (models.SubscriptionStatus, error) {
	_, status, err := s.RegisterSubscription(ctx, clientID, models.SubscriptionInput{IsPaymentExempt: &exempt})
	return status, err
}

// Recalculate пересчитывает статус и сохраняет его, только если он изменился.
func (s *Service) Recalculate(ctx context.Context, clientID string) (models.SubscriptionStatus, error) {
	const op = "status.Recalculate"

	snap, err := s.load(ctx, clientID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	status, err := s.commit(ctx, snap)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return status, nil
}

// ListPayments возвращает платежи клиента, новые первыми.
func (s *Service) ListPayments(ctx context.Context, clientID string) ([]models.Payment, error) {
	const op = "status.ListPayments"

	if _, err := s.store.Get(ctx, clientPath(clientID)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrClientNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := s.payments(ctx, clientID, store.Query{
		Collection: paymentsCollection(clientID),
		OrderBy:    "date",
		Desc:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
