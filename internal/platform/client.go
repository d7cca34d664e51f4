package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"
)

const (
	tokenEndpointPathConstant            = "/auth/identity/connect/token"
	teamsEndpointPathConstant            = "/api/teams"
	projectsEndpointPathConstant         = "/api/projects"
	queryCollectionEndpointPathConstant  = "/api/queries/collection"
	projectScansEndpointTemplateConstant = "/api/projects/%d/scans?status=Finished&limit=1"
	oauthClientIdentifierConstant        = "resource_owner_client"
	oauthScopeConstant                   = "sast_rest_api"
	defaultRequestTimeoutConstant        = 30 * time.Second
	defaultMaxRetriesConstant            = 3
	baseURLRequiredMessageConstant       = "platform base URL must be provided"
	remoteRejectionTemplateConstant      = "platform rejected %s: %s"
	statusErrorTemplateConstant          = "%s returned status %d for %s"
	operationErrorTemplateConstant       = "%s failed: %v"
	decodeErrorTemplateConstant          = "%s response decoding failed: %w"
	requestCreationTemplateConstant      = "%s request creation failed: %w"
	authenticationErrorTemplateConstant  = "platform authentication failed: %w"
)

// OperationName identifies a platform API operation for error reporting.
type OperationName string

// Operations exposed by the client.
const (
	OperationListTeams            OperationName = "ListTeams"
	OperationListProjects         OperationName = "ListProjects"
	OperationQueryCollection      OperationName = "QueryCollection"
	OperationUploadQueryGroups    OperationName = "UploadQueryGroups"
	OperationProjectScanLanguages OperationName = "ProjectScanLanguages"
)

// ErrBaseURLRequired indicates the client was configured without a base URL.
var ErrBaseURLRequired = errors.New(baseURLRequiredMessageConstant)

// APIStatusError reports a non-success HTTP status from the platform.
type APIStatusError struct {
	Operation  OperationName
	StatusCode int
	Endpoint   string
}

// Error renders the status failure.
func (statusError *APIStatusError) Error() string {
	return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.Endpoint)
}

// OperationError wraps transport or protocol failures for one operation.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error renders the operation failure.
func (operationError *OperationError) Error() string {
	return fmt.Sprintf(operationErrorTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError *OperationError) Unwrap() error {
	return operationError.Cause
}

// ClientConfiguration describes how to reach and authenticate against the
// platform.
type ClientConfiguration struct {
	BaseURL        string
	Credentials    Credentials
	RequestTimeout time.Duration
	MaxRetries     int
}

// Client is an authenticated platform API client. All calls are atomic
// request/response exchanges; retry behavior is bounded and handled by the
// underlying transport.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient authenticates against the platform token endpoint and returns a
// ready client. Authentication failures are configuration errors and abort
// the run before any project is processed.
func NewClient(executionContext context.Context, configuration ClientConfiguration) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if len(baseURL) == 0 {
		return nil, ErrBaseURLRequired
	}

	requestTimeout := configuration.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeoutConstant
	}
	maxRetries := configuration.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetriesConstant
	}

	retryingClient := retryablehttp.NewClient()
	retryingClient.RetryMax = maxRetries
	retryingClient.HTTPClient.Timeout = requestTimeout
	retryingClient.Logger = nil

	oauthConfiguration := &oauth2.Config{
		ClientID: oauthClientIdentifierConstant,
		Scopes:   []string{oauthScopeConstant},
		Endpoint: oauth2.Endpoint{TokenURL: baseURL + tokenEndpointPathConstant},
	}

	authenticationContext := context.WithValue(executionContext, oauth2.HTTPClient, retryingClient.StandardClient())
	token, tokenError := oauthConfiguration.PasswordCredentialsToken(authenticationContext, configuration.Credentials.Username, configuration.Credentials.Password)
	if tokenError != nil {
		return nil, fmt.Errorf(authenticationErrorTemplateConstant, tokenError)
	}

	tokenSource := oauthConfiguration.TokenSource(authenticationContext, token)

	return &Client{
		httpClient: oauth2.NewClient(authenticationContext, tokenSource),
		baseURL:    baseURL,
	}, nil
}

type queryCollectionEnvelope struct {
	IsSuccessful bool         `json:"isSuccessful"`
	ErrorMessage string       `json:"errorMessage"`
	QueryGroups  []QueryGroup `json:"queryGroups"`
}

type uploadEnvelope struct {
	IsSuccessful bool   `json:"isSuccessful"`
	ErrorMessage string `json:"errorMessage"`
}

type scanRecord struct {
	ScanState scanState `json:"scanState"`
}

type scanState struct {
	LanguageStateCollection []languageState `json:"languageStateCollection"`
}

type languageState struct {
	LanguageName string `json:"languageName"`
}

// ListTeams returns the full team hierarchy snapshot.
func (client *Client) ListTeams(executionContext context.Context) ([]Team, error) {
	var teams []Team
	if callError := client.getJSON(executionContext, OperationListTeams, teamsEndpointPathConstant, &teams); callError != nil {
		return nil, callError
	}
	return teams, nil
}

// ListProjects returns every project visible to the authenticated caller.
func (client *Client) ListProjects(executionContext context.Context) ([]Project, error) {
	var projects []Project
	if callError := client.getJSON(executionContext, OperationListProjects, projectsEndpointPathConstant, &projects); callError != nil {
		return nil, callError
	}
	return projects, nil
}

// QueryCollection returns every team- and project-scoped query group
// override currently defined on the platform. Groups in other scopes
// (corporate, platform default) are excluded.
func (client *Client) QueryCollection(executionContext context.Context) ([]QueryGroup, error) {
	var envelope queryCollectionEnvelope
	if callError := client.getJSON(executionContext, OperationQueryCollection, queryCollectionEndpointPathConstant, &envelope); callError != nil {
		return nil, callError
	}
	if !envelope.IsSuccessful {
		return nil, &OperationError{
			Operation: OperationQueryCollection,
			Cause:     fmt.Errorf(remoteRejectionTemplateConstant, OperationQueryCollection, envelope.ErrorMessage),
		}
	}

	var overrideGroups []QueryGroup
	for _, group := range envelope.QueryGroups {
		if group.Scope == PackageScopeTeam || group.Scope == PackageScopeProject {
			overrideGroups = append(overrideGroups, group)
		}
	}
	return overrideGroups, nil
}

// UploadQueryGroups writes the provided project-level query groups back to
// the platform.
func (client *Client) UploadQueryGroups(executionContext context.Context, queryGroups []QueryGroup) error {
	var envelope uploadEnvelope
	if callError := client.postJSON(executionContext, OperationUploadQueryGroups, queryCollectionEndpointPathConstant, queryGroups, &envelope); callError != nil {
		return callError
	}
	if !envelope.IsSuccessful {
		return &OperationError{
			Operation: OperationUploadQueryGroups,
			Cause:     fmt.Errorf(remoteRejectionTemplateConstant, OperationUploadQueryGroups, envelope.ErrorMessage),
		}
	}
	return nil
}

// ProjectScanLanguages returns the language names recorded by the project's
// most recent finished scan. An empty result means the project has never
// completed a scan.
func (client *Client) ProjectScanLanguages(executionContext context.Context, projectIdentifier int64) ([]string, error) {
	endpoint := fmt.Sprintf(projectScansEndpointTemplateConstant, projectIdentifier)

	var scans []scanRecord
	if callError := client.getJSON(executionContext, OperationProjectScanLanguages, endpoint, &scans); callError != nil {
		return nil, callError
	}
	if len(scans) == 0 {
		return nil, nil
	}

	var languages []string
	for _, language := range scans[0].ScanState.LanguageStateCollection {
		languages = append(languages, language.LanguageName)
	}
	return languages, nil
}

func (client *Client) getJSON(executionContext context.Context, operation OperationName, endpointPath string, result any) error {
	return client.exchangeJSON(executionContext, operation, http.MethodGet, endpointPath, nil, result)
}

func (client *Client) postJSON(executionContext context.Context, operation OperationName, endpointPath string, payload any, result any) error {
	return client.exchangeJSON(executionContext, operation, http.MethodPost, endpointPath, payload, result)
}

func (client *Client) exchangeJSON(executionContext context.Context, operation OperationName, method string, endpointPath string, payload any, result any) error {
	var requestBody io.Reader
	if payload != nil {
		encodedPayload, encodeError := json.Marshal(payload)
		if encodeError != nil {
			return &OperationError{Operation: operation, Cause: encodeError}
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, requestError := http.NewRequestWithContext(executionContext, method, client.baseURL+endpointPath, requestBody)
	if requestError != nil {
		return fmt.Errorf(requestCreationTemplateConstant, operation, requestError)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, responseError := client.httpClient.Do(request)
	if responseError != nil {
		return &OperationError{Operation: operation, Cause: responseError}
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return &APIStatusError{Operation: operation, StatusCode: response.StatusCode, Endpoint: endpointPath}
	}

	if result == nil {
		return nil
	}
	if decodeError := json.NewDecoder(response.Body).Decode(result); decodeError != nil {
		return fmt.Errorf(decodeErrorTemplateConstant, operation, decodeError)
	}
	return nil
}
