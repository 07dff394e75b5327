package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/host"
)

// ErrDocumentNotFound is returned by the mock store for unknown document ids
var ErrDocumentNotFound = errors.New("document not found")

// MockStore serves operations in memory when the wallet is not embedded.
// It keeps enough state for deletes, favorites and field selection to be
// visible to later calls.
type MockStore struct {
	mu           sync.Mutex
	state        AppState
	documents    map[string]*DocumentDetails
	options      []DocumentOption
	offerCode    OfferCodeData
	signatures   []SignatureOption
	pid          PidDetails
	request      PresentationRequest
	biometrics   BiometricAvailability
	files        []File
	methods      []SigningMethod
	transactions []Transaction
}

// NewMockStore creates a store seeded with demo data
func NewMockStore() *MockStore {
	m := &MockStore{
		state: AppState{Initialised: true, Onboarded: true, Language: "lv"},
		documents: map[string]*DocumentDetails{
			"pid-1": {
				Document: Document{ID: "pid-1", Type: "PID", Title: "Personal identification data", Issuer: "PMLP", IssuedAt: "2024-06-01", ValidUntil: "2034-06-01", IsFavorite: true},
				Fields: []DocumentField{
					{Code: "given_name", Label: "Given name", Value: "Jānis"},
					{Code: "family_name", Label: "Family name", Value: "Bērziņš"},
					{Code: "birth_date", Label: "Date of birth", Value: "1990-01-01"},
				},
			},
			"mdl-1": {
				Document: Document{ID: "mdl-1", Type: "MDL", Title: "Driving licence", Issuer: "CSDD", IssuedAt: "2023-03-15", ValidUntil: "2033-03-15"},
				Fields: []DocumentField{
					{Code: "document_number", Label: "Number", Value: "AB123456"},
					{Code: "driving_privileges", Label: "Categories", Value: "B"},
				},
			},
		},
		options: []DocumentOption{
			{Type: "PID", Title: "Personal identification data", Issuer: "PMLP"},
			{Type: "MDL", Title: "Driving licence", Issuer: "CSDD"},
			{Type: "EHIC", Title: "European health insurance card", Issuer: "NVD"},
		},
		offerCode:  OfferCodeData{IssuerName: "Demo issuer", OfferURI: "openid-credential-offer://demo", TxCodeLength: 6, InputMode: "numeric"},
		signatures: []SignatureOption{{ID: "sig-1", Title: "eParaksts mobile"}, {ID: "sig-2", Title: "Smart-ID"}},
		pid:        PidDetails{GivenName: "Jānis", FamilyName: "Bērziņš"},
		request: PresentationRequest{
			Verifier: "Demo verifier",
			Purpose:  "Age verification",
			Fields: []RequestedField{
				{ID: "given_name", Label: "Given name", Required: true, Checked: true},
				{ID: "birth_date", Label: "Date of birth", Required: true, Checked: true},
				{ID: "address", Label: "Address"},
			},
		},
		biometrics: BiometricAvailability{Available: true, Type: "fingerprint"},
		files:      []File{{Name: "agreement.pdf", Path: "/shared/agreement.pdf", Size: 48213}},
		methods:    []SigningMethod{{ID: "eparaksts", Title: "eParaksts mobile"}, {ID: "smartid", Title: "Smart-ID"}},
		transactions: []Transaction{
			{ID: "tx-1", DocumentID: "pid-1", Type: "presentation", Party: "Demo verifier", Timestamp: "2024-07-01T10:00:00Z", Status: "SUCCESS"},
			{ID: "tx-2", DocumentID: "mdl-1", Type: "issuance", Party: "CSDD", Timestamp: "2024-06-11T08:30:00Z", Status: "SUCCESS"},
			{ID: "tx-3", DocumentID: "pid-1", Type: "issuance", Party: "PMLP", Timestamp: "2024-06-01T09:15:00Z", Status: "SUCCESS"},
		},
	}
	m.syncRequestDocuments()
	return m
}

// AddDocument stores or replaces a document
func (m *MockStore) AddDocument(doc DocumentDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[doc.ID] = &doc
	m.syncRequestDocuments()
}

// Serve registers every operation as a handler on a loopback host, so the
// embedded path can be exercised without a native host.
func (m *MockStore) Serve(l *host.Loopback) {
	for _, entry := range registry {
		entry := entry
		l.Handle(entry.Bridge, entry.Function, func(_ context.Context, msg contracts.HostMessage) (interface{}, error) {
			return entry.mock(m, msg.Data)
		})
	}
}

func decodeParams(params json.RawMessage, v interface{}) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	return nil
}

// syncRequestDocuments must be called with m.mu held
func (m *MockStore) syncRequestDocuments() {
	m.request.Documents = m.request.Documents[:0]
	for _, doc := range m.sortedDocuments() {
		if doc.Type == "PID" {
			m.request.Documents = append(m.request.Documents, doc)
		}
	}
}

// sortedDocuments must be called with m.mu held
func (m *MockStore) sortedDocuments() []Document {
	docs := make([]Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc.Document)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (m *MockStore) getState(json.RawMessage) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *MockStore) getDocuments(json.RawMessage) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sortedDocuments(), nil
}

func (m *MockStore) getDocumentDetails(params json.RawMessage) (interface{}, error) {
	var ref documentRef
	if err := decodeParams(params, &ref); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, exists := m.documents[ref.DocumentID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, ref.DocumentID)
	}
	details := *doc
	details.Fields = append([]DocumentField(nil), doc.Fields...)
	return details, nil
}

func (m *MockStore) deleteDocument(params json.RawMessage) (interface{}, error) {
	var ref documentRef
	if err := decodeParams(params, &ref); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, ref.DocumentID)
	m.syncRequestDocuments()
	return StatusResult{Status: contracts.StatusSuccess}, nil
}

func (m *MockStore) setDocumentFavorite(params json.RawMessage) (interface{}, error) {
	var req favoriteRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, exists := m.documents[req.DocumentID]; exists {
		doc.IsFavorite = req.IsFavorite
	}
	return nil, nil
}

func (m *MockStore) getDocumentOptions(json.RawMessage) (interface{}, error) {
	return m.options, nil
}

func (m *MockStore) resolveDocumentOffer(json.RawMessage) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return DocumentOffer{
		IssuerName: m.offerCode.IssuerName,
		Documents:  []DocumentOption{m.options[0]},
	}, nil
}

func (m *MockStore) getOfferCodeData(json.RawMessage) (interface{}, error) {
	return m.offerCode, nil
}

func (m *MockStore) getSignatureOptions(json.RawMessage) (interface{}, error) {
	return m.signatures, nil
}

func (m *MockStore) getPidDetails(json.RawMessage) (interface{}, error) {
	return m.pid, nil
}

func (m *MockStore) getRequestDocuments(json.RawMessage) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req := m.request
	req.Documents = append([]Document(nil), m.request.Documents...)
	req.Fields = append([]RequestedField(nil), m.request.Fields...)
	return req, nil
}

func (m *MockStore) updateField(params json.RawMessage) (interface{}, error) {
	var update fieldUpdate
	if err := decodeParams(params, &update); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.request.Fields {
		if m.request.Fields[i].ID == update.ID {
			m.request.Fields[i].Checked = update.Checked
			return m.request.Fields[i], nil
		}
	}
	return nil, fmt.Errorf("%w: unknown field %q", contracts.ErrInvalidRequest, update.ID)
}

func (m *MockStore) enableBiometrics(params json.RawMessage) (interface{}, error) {
	var req biometricsRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.BiometricsEnabled = req.Enabled
	return nil, nil
}

func (m *MockStore) setLanguage(params json.RawMessage) (interface{}, error) {
	var req languageRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if req.Language == "" {
		return nil, fmt.Errorf("%w: language is required", contracts.ErrInvalidRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Language = req.Language
	return nil, nil
}

func (m *MockStore) getBiometricAvailability(json.RawMessage) (interface{}, error) {
	return m.biometrics, nil
}

func (m *MockStore) pickFiles(json.RawMessage) (interface{}, error) {
	return m.files, nil
}

func (m *MockStore) getSigningMethods(json.RawMessage) (interface{}, error) {
	return m.methods, nil
}

func (m *MockStore) getTransactions(params json.RawMessage) (interface{}, error) {
	var ref documentRef
	if err := decodeParams(params, &ref); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ref.DocumentID == "" {
		return append([]Transaction(nil), m.transactions...), nil
	}
	var filtered []Transaction
	for _, tx := range m.transactions {
		if tx.DocumentID == ref.DocumentID {
			filtered = append(filtered, tx)
		}
	}
	return filtered, nil
}
