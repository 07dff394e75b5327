package services

// AppState is the wallet state reported by the host at startup
type AppState struct {
	Initialised       bool   `json:"initialised"`
	Onboarded         bool   `json:"onboarded"`
	Language          string `json:"language"`
	BiometricsEnabled bool   `json:"biometricsEnabled"`
}

// Document is a credential held in the wallet
type Document struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Title      string `json:"title"`
	Issuer     string `json:"issuer"`
	IssuedAt   string `json:"issuedAt"`
	ValidUntil string `json:"validUntil,omitempty"`
	IsFavorite bool   `json:"isFavorite"`
}

// DocumentField is one attribute shown on the document details view
type DocumentField struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// DocumentDetails is a document with its attributes
type DocumentDetails struct {
	Document
	Fields []DocumentField `json:"fields"`
}

// DocumentOption is a document type the wallet can request from an issuer
type DocumentOption struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Issuer string `json:"issuer"`
}

// OfferCodeData describes the transaction code an offer requires
type OfferCodeData struct {
	IssuerName   string `json:"issuerName"`
	OfferURI     string `json:"offerUri"`
	TxCodeLength int    `json:"txCodeLength"`
	InputMode    string `json:"inputMode"`
}

// SignatureOption is a signature the user can attach during issuance
type SignatureOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PidDetails is the identity returned after authentication
type PidDetails struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// RequestedField is an attribute a verifier asks for
type RequestedField struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Checked  bool   `json:"checked"`
}

// PresentationRequest is what a verifier asks the wallet to present
type PresentationRequest struct {
	Verifier  string           `json:"verifier"`
	Purpose   string           `json:"purpose"`
	Documents []Document       `json:"documents"`
	Fields    []RequestedField `json:"fields"`
}

// BiometricAvailability reports the device's biometric support
type BiometricAvailability struct {
	Available bool   `json:"available"`
	Type      string `json:"type,omitempty"`
}

// File is a file picked or shared for signing
type File struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// SigningMethod is a way to sign a document
type SigningMethod struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Transaction is one entry of a document's usage history
type Transaction struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	Type       string `json:"type"`
	Party      string `json:"party"`
	Timestamp  string `json:"timestamp"`
	Status     string `json:"status"`
}

// StatusResult is the acknowledgement of a mutating call
type StatusResult struct {
	Status string `json:"status"`
}

// DocumentOffer is a credential offer resolved from an issuer
type DocumentOffer struct {
	IssuerName string           `json:"issuerName"`
	Documents  []DocumentOption `json:"documents"`
}
