package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rivadavia/grainops/internal/model"
)

type ContactStore interface {
	Create(ctx context.Context, contact model.Contact) (*model.Contact, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Contact, error)
	List(ctx context.Context, contactType model.ContactType, search string) ([]model.Contact, error)
	Update(ctx context.Context, contact model.Contact) (*model.Contact, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type ContactService struct {
	repo ContactStore
	log  zerolog.Logger
}

func NewContactService(repo ContactStore, log zerolog.Logger) *ContactService {
	return &ContactService{repo: repo, log: log}
}

type ContactInput struct {
	Name    string
	Type    model.ContactType
	Phone   string
	Email   string
	CUIT    string
	Address string
	Notes   string
}

func (s *ContactService) Create(ctx context.Context, input ContactInput) (*model.Contact, error) {
	contact, err := buildContact(input)
	if err != nil {
		return nil, err
	}
	contact.ID = uuid.New()
	created, err := s.repo.Create(ctx, contact)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("contact_id", created.ID.String()).Str("type", string(created.Type)).Msg("contact created")
	return created, nil
}

func (s *ContactService) Get(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	contact, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context, contactType model.ContactType, search string) ([]model.Contact, error) {
	if contactType != "" && !contactType.Valid() {
		return nil, fmt.Errorf("%w: unknown contact type %q", ErrInvalidInput, contactType)
	}
	return s.repo.List(ctx, contactType, strings.TrimSpace(search))
}

func (s *ContactService) Update(ctx context.Context, id uuid.UUID, input ContactInput) (*model.Contact, error) {
	contact, err := buildContact(input)
	if err != nil {
		return nil, err
	}
	contact.ID = id
	updated, err := s.repo.Update(ctx, contact)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	s.log.Info().Str("contact_id", id.String()).Msg("contact deleted")
	return nil
}

func buildContact(input ContactInput) (model.Contact, error) {
	contact := model.Contact{
		Name:    strings.TrimSpace(input.Name),
		Type:    input.Type,
		Phone:   strings.TrimSpace(input.Phone),
		Email:   strings.TrimSpace(input.Email),
		CUIT:    strings.TrimSpace(input.CUIT),
		Address: strings.TrimSpace(input.Address),
		Notes:   input.Notes,
	}
	if contact.Name == "" {
		return model.Contact{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !contact.Type.Valid() {
		return model.Contact{}, fmt.Errorf("%w: unknown contact type %q", ErrInvalidInput, contact.Type)
	}
	if contact.Email != "" {
		if _, err := mail.ParseAddress(contact.Email); err != nil {
			return model.Contact{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
		}
	}
	return contact, nil
}
