package services

import "encoding/json"

var (
	OpGetState = Operation{Bridge: "app", Function: "getState"}

	OpGetDocuments         = Operation{Bridge: "dashboard", Function: "getDocuments"}
	OpGetDocumentDetails   = Operation{Bridge: "dashboard", Function: "getDocumentDetails"}
	OpDeleteDocument       = Operation{Bridge: "dashboard", Function: "deleteDocument"}
	OpSetDocumentFavorite  = Operation{Bridge: "dashboard", Function: "setDocumentFavorite"}
	OpIssuanceScanQrCode   = Operation{Bridge: "issuance", Function: "scanQrCode"}
	OpGetDocumentOptions   = Operation{Bridge: "issuance", Function: "getDocumentOptions"}
	OpIssueDocument        = Operation{Bridge: "issuance", Function: "issueDocument"}
	OpResumeIssuance       = Operation{Bridge: "issuance", Function: "resumeIssuance"}
	OpResolveDocumentOffer = Operation{Bridge: "issuance", Function: "resolveDocumentOffer"}
	OpGetOfferCodeData     = Operation{Bridge: "issuance", Function: "getOfferCodeData"}
	OpIssueDocumentOffer   = Operation{Bridge: "issuance", Function: "issueDocumentOffer", Timeout: InteractiveTimeout}
	OpGetSignatureOptions  = Operation{Bridge: "issuance", Function: "getUserSignatureOptions"}
	OpSelectSignatures     = Operation{Bridge: "issuance", Function: "selectUserSignatures"}
	OpLaunchSEB            = Operation{Bridge: "issuance", Function: "launchSEB"}
	OpGetPidDetails        = Operation{Bridge: "issuance", Function: "getPidDetails"}

	OpSubmitSms         = Operation{Bridge: "onboarding", Function: "submitSms"}
	OpVerifySmsOTP      = Operation{Bridge: "onboarding", Function: "verifySmsOTP"}
	OpSubmitEmail       = Operation{Bridge: "onboarding", Function: "submitEmail"}
	OpVerifyEmailOTP    = Operation{Bridge: "onboarding", Function: "verifyEmailOTP"}
	OpInitiateEParaksts = Operation{Bridge: "onboarding", Function: "initiateEParaksts"}
	OpInitialiseWallet  = Operation{Bridge: "onboarding", Function: "initialiseWallet", Timeout: InteractiveTimeout}
	OpStartWallet       = Operation{Bridge: "onboarding", Function: "startWallet"}

	OpPresentationScanQrCode = Operation{Bridge: "presentation", Function: "scanQrCode"}
	OpGetRequestDocuments    = Operation{Bridge: "presentation", Function: "getRequestDocuments"}
	OpUpdateField            = Operation{Bridge: "presentation", Function: "updateField"}
	OpConfirmRequest         = Operation{Bridge: "presentation", Function: "confirmRequest", Timeout: InteractiveTimeout}
	OpPresentationCanceled   = Operation{Bridge: "presentation", Function: "presentationCanceled", Timeout: CancelTimeout}

	OpEnableBiometrics         = Operation{Bridge: "settings", Function: "enableBiometrics", Timeout: InteractiveTimeout}
	OpSetLanguage              = Operation{Bridge: "settings", Function: "setLanguage"}
	OpGetBiometricAvailability = Operation{Bridge: "settings", Function: "getBiometricAvailability"}
	OpChangePin                = Operation{Bridge: "settings", Function: "changePin", Timeout: InteractiveTimeout}
	OpDeleteWallet             = Operation{Bridge: "settings", Function: "deleteWallet", Timeout: InteractiveTimeout}

	OpPickFiles              = Operation{Bridge: "sign", Function: "pickFiles", Timeout: FilePickerTimeout}
	OpGetSigningMethods      = Operation{Bridge: "sign", Function: "getSigningMethods"}
	OpSignDocument           = Operation{Bridge: "sign", Function: "signDocument", Timeout: InteractiveTimeout}
	OpDownloadSignedDocument = Operation{Bridge: "sign", Function: "downloadSignedDocument"}
	OpShareSignedDocument    = Operation{Bridge: "sign", Function: "shareSignedDocument"}
	OpGetSharedFile          = Operation{Bridge: "sign", Function: "getSharedFile", Timeout: FilePickerTimeout}
	OpOpenFile               = Operation{Bridge: "sign", Function: "openFile"}

	OpGetTransactions = Operation{Bridge: "transactions", Function: "getTransactions"}
)

type mockFunc func(m *MockStore, params json.RawMessage) (interface{}, error)

type registryEntry struct {
	Operation
	mock mockFunc
}

var registry = buildRegistry([]registryEntry{
	{OpGetState, (*MockStore).getState},

	{OpGetDocuments, (*MockStore).getDocuments},
	{OpGetDocumentDetails, (*MockStore).getDocumentDetails},
	{OpDeleteDocument, (*MockStore).deleteDocument},
	{OpSetDocumentFavorite, (*MockStore).setDocumentFavorite},

	{OpIssuanceScanQrCode, nothing},
	{OpGetDocumentOptions, (*MockStore).getDocumentOptions},
	{OpIssueDocument, nothing},
	{OpResumeIssuance, nothing},
	{OpResolveDocumentOffer, (*MockStore).resolveDocumentOffer},
	{OpGetOfferCodeData, (*MockStore).getOfferCodeData},
	{OpIssueDocumentOffer, nothing},
	{OpGetSignatureOptions, (*MockStore).getSignatureOptions},
	{OpSelectSignatures, nothing},
	{OpLaunchSEB, nothing},
	{OpGetPidDetails, (*MockStore).getPidDetails},

	{OpSubmitSms, nothing},
	{OpVerifySmsOTP, nothing},
	{OpSubmitEmail, nothing},
	{OpVerifyEmailOTP, nothing},
	{OpInitiateEParaksts, nothing},
	{OpInitialiseWallet, nothing},
	{OpStartWallet, nothing},

	{OpPresentationScanQrCode, nothing},
	{OpGetRequestDocuments, (*MockStore).getRequestDocuments},
	{OpUpdateField, (*MockStore).updateField},
	{OpConfirmRequest, nothing},
	{OpPresentationCanceled, nothing},

	{OpEnableBiometrics, (*MockStore).enableBiometrics},
	{OpSetLanguage, (*MockStore).setLanguage},
	{OpGetBiometricAvailability, (*MockStore).getBiometricAvailability},
	{OpChangePin, nothing},
	{OpDeleteWallet, nothing},

	{OpPickFiles, (*MockStore).pickFiles},
	{OpGetSigningMethods, (*MockStore).getSigningMethods},
	{OpSignDocument, nothing},
	{OpDownloadSignedDocument, nothing},
	{OpShareSignedDocument, nothing},
	{OpGetSharedFile, (*MockStore).pickFiles},
	{OpOpenFile, nothing},

	{OpGetTransactions, (*MockStore).getTransactions},
})

func buildRegistry(entries []registryEntry) map[string]registryEntry {
	m := make(map[string]registryEntry, len(entries))
	for _, entry := range entries {
		m[entry.Key()] = entry
	}
	return m
}

func nothing(*MockStore, json.RawMessage) (interface{}, error) {
	return nil, nil
}
