package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEngineErrorFormatsServiceAndMessage(t *testing.T) {
	err := NewInvalidURLError("bad url", "s3", nil)
	require.Equal(t, "[s3] bad url", err.Error())

	bare := &EngineError{Message: "no service"}
	require.Equal(t, "no service", bare.Error())
}

func TestEngineErrorUnwrapsOriginal(t *testing.T) {
	inner := errors.New("boom")
	err := NewMalformedURLError("parse failed", inner)
	require.ErrorIs(t, err, inner)
}

func TestAWSServerErrorIsRetryableAWSClientErrorIsNot(t *testing.T) {
	server := NewAWSServerError("InternalError", "oops", "s3", 500)
	require.True(t, server.IsRetryable())

	client := NewAWSClientError("AccessDenied", "nope", "s3", 403)
	require.False(t, client.IsRetryable())
}

func TestClassifyErrorRestXMLKnownClientCode(t *testing.T) {
	body := []byte(`<Error><Code>NoSuchBucket</Code><Message>bk</Message></Error>`)
	err := ClassifyError("s3", ServiceProtocol{Type: ProtocolRestXML}, 404, map[string][]string{}, body, nil)

	var clientErr *AWSClientError
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, "NoSuchBucket", clientErr.Code)
	require.Equal(t, "bk", clientErr.Message)
}

func TestClassifyErrorQueryProtocolEnvelope(t *testing.T) {
	body := []byte(`<ErrorResponse><Error><Code>ValidationError</Code><Message>bad input</Message></Error></ErrorResponse>`)
	err := ClassifyError("iam", ServiceProtocol{Type: ProtocolQuery}, 400, map[string][]string{}, body, nil)

	var clientErr *AWSClientError
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, "ValidationError", clientErr.Code)
}

func TestClassifyErrorRestJSONUsesErrorTypeHeader(t *testing.T) {
	headers := map[string][]string{"X-Amzn-Errortype": {"ResourceNotFoundException:http://..."}}
	body := []byte(`{"message":"missing"}`)
	err := ClassifyError("dynamodb", ServiceProtocol{Type: ProtocolRestJSON}, 400, headers, body, nil)

	var clientErr *AWSClientError
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, "ResourceNotFoundException", clientErr.Code)
	require.Equal(t, "missing", clientErr.Message)
}

func TestClassifyErrorJSONProtocolUsesTypeField(t *testing.T) {
	body := []byte(`{"__type":"ThrottlingException","message":"slow down"}`)
	err := ClassifyError("dynamodb", ServiceProtocol{Type: ProtocolJSON}, 400, map[string][]string{}, body, nil)

	var clientErr *AWSClientError
	require.ErrorAs(t, err, &clientErr)
	require.Equal(t, "ThrottlingException", clientErr.Code)
}

func TestClassifyErrorUnknownCodeIsResponseError(t *testing.T) {
	body := []byte(`<Error><Code>SomeWeirdCode</Code><Message>m</Message></Error>`)

	serverErr := ClassifyError("s3", ServiceProtocol{Type: ProtocolRestXML}, 503, map[string][]string{}, body, nil)
	var responseErr *AWSResponseError
	require.ErrorAs(t, serverErr, &responseErr)
	require.Equal(t, "SomeWeirdCode", responseErr.Code)
}

func TestClassifyErrorNoCodeFallsBackToStatusRange(t *testing.T) {
	err := ClassifyError("s3", ServiceProtocol{Type: ProtocolRestJSON}, 500, map[string][]string{}, []byte(``), nil)
	var serverErr *AWSServerError
	require.ErrorAs(t, err, &serverErr)
}

func TestClassifyErrorOpaqueFallback(t *testing.T) {
	err := ClassifyError("s3", ServiceProtocol{Type: ProtocolRestJSON}, 200, map[string][]string{}, []byte(``), nil)
	var awsErr *AWSError
	require.ErrorAs(t, err, &awsErr)
}

func TestClassifyErrorPossibleErrorTypesTakesPriority(t *testing.T) {
	body := []byte(`<Error><Code>NoSuchBucket</Code><Message>bk</Message></Error>`)
	called := false
	registry := map[string]ErrorConstructor{
		"NoSuchBucket": func(code, message string, statusCode int, b []byte) error {
			called = true
			return NewAWSError("custom: "+message, "s3", statusCode, b)
		},
	}
	err := ClassifyError("s3", ServiceProtocol{Type: ProtocolRestXML}, 404, map[string][]string{}, body, registry)
	require.True(t, called)
	require.Contains(t, err.Error(), "custom: bk")
}
