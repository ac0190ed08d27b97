package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBuildRequestRestJSONPayloadPath is spec §8 scenario 3: a raw-bytes
// payload path becomes the exact HTTP body and never appears as a header.
func TestBuildRequestRestJSONPayloadPath(t *testing.T) {
	input := newMapShape().
		withMember(Member{Label: "Body", Type: TypeBlob}).
		set("Body", []byte{0x01, 0x02})
	input.payload, input.hasPL = "Body", true

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "PutObject"},
		Method:       "PUT",
		PathTemplate: "/bucket/key",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolRestJSON},
		Service:      "s3",
		Region:       "us-east-1",
		Endpoint:     "https://s3.amazonaws.com",
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, req.Body.Bytes)
	require.Equal(t, BodyBuffer, req.Body.Kind)
	_, hasHeader := req.HeaderGet("Body")
	require.False(t, hasHeader)
}

// TestBuildRequestQueryProtocolGET is spec §8 scenario 4: query protocol
// GET produces an alphabetically sorted query string including the
// injected Action/Version.
func TestBuildRequestQueryProtocolGET(t *testing.T) {
	input := newMapShape().
		withMember(Member{Label: "UserName", Type: TypeScalar}).
		set("UserName", "Bob")
	input.query = map[string]string{}

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "GetUser", APIVersion: "2010-05-08"},
		Method:       "GET",
		PathTemplate: "/",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolQuery},
		Service:      "iam",
		Region:       "us-east-1",
		Endpoint:     "https://iam.amazonaws.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://iam.amazonaws.com/?Action=GetUser&UserName=Bob&Version=2010-05-08", req.URL)
}

func TestBuildRequestQueryProtocolPOSTFormBody(t *testing.T) {
	input := newMapShape().
		withMember(Member{Label: "UserName", Type: TypeScalar}).
		set("UserName", "Bob")

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "GetUser", APIVersion: "2010-05-08"},
		Method:       "POST",
		PathTemplate: "/",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolQuery},
		Service:      "iam",
		Region:       "us-east-1",
		Endpoint:     "https://iam.amazonaws.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Action=GetUser&UserName=Bob&Version=2010-05-08", string(req.Body.Bytes))
	ct, _ := req.HeaderGet("Content-Type")
	require.Equal(t, "application/x-www-form-urlencoded", ct)
}

func TestBuildRequestEC2AlwaysFormBody(t *testing.T) {
	input := newMapShape()

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "DescribeInstances", APIVersion: "2016-11-15"},
		Method:       "GET",
		PathTemplate: "/",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolOther, OtherName: "ec2"},
		Service:      "ec2",
		Region:       "us-east-1",
		Endpoint:     "https://ec2.amazonaws.com",
	})
	require.NoError(t, err)
	require.Equal(t, "Action=DescribeInstances&Version=2016-11-15", string(req.Body.Bytes))
}

func TestBuildRequestPathParamSubstitution(t *testing.T) {
	input := newMapShape()
	input.path = map[string]string{"Bucket": "BucketName", "Key": "ObjectKey"}
	input.set("BucketName", "my-bucket")
	input.set("ObjectKey", "a/b/c.txt")

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "GetObject"},
		Method:       "GET",
		PathTemplate: "/{Bucket}/{Key+}",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolRestJSON},
		Service:      "s3",
		Region:       "us-east-1",
		Endpoint:     "https://s3.amazonaws.com",
	})
	require.NoError(t, err)
	require.Equal(t, "https://s3.amazonaws.com/my-bucket/a%2Fb%2Fc.txt", req.URL)
}

func TestBuildRequestHeaderAndQueryProjection(t *testing.T) {
	input := newMapShape()
	input.header = map[string]string{"x-custom-header": "CustomField"}
	input.query = map[string]string{"maxKeys": "MaxKeys"}
	input.set("CustomField", "hello")
	input.set("MaxKeys", 10)

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "ListObjects"},
		Method:       "GET",
		PathTemplate: "/bucket",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolRestJSON},
		Service:      "s3",
		Region:       "us-east-1",
		Endpoint:     "https://s3.amazonaws.com",
	})
	require.NoError(t, err)
	v, ok := req.HeaderGet("x-custom-header")
	require.True(t, ok)
	require.Equal(t, "hello", v)
	require.Contains(t, req.URL, "maxKeys=10")
}

func TestBuildRequestJSONWholeInputBody(t *testing.T) {
	input := newMapShape().
		withMember(Member{Label: "TableName", Type: TypeScalar}).
		set("TableName", "Users")

	req, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "DescribeTable"},
		Method:       "POST",
		PathTemplate: "/",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolJSON, Version: "1.0"},
		Service:      "dynamodb",
		Region:       "us-east-1",
		Endpoint:     "https://dynamodb.us-east-1.amazonaws.com",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"TableName":"Users"}`, string(req.Body.Bytes))
}

func TestBuildRequestUnsupportedPayloadFieldErrors(t *testing.T) {
	input := newMapShape()
	input.payload, input.hasPL = "Missing", true

	_, err := BuildRequest(BuildParams{
		Operation:    Operation{Name: "Op"},
		Method:       "POST",
		PathTemplate: "/",
		Input:        input,
		Protocol:     ServiceProtocol{Type: ProtocolRestJSON},
		Service:      "svc",
		Region:       "us-east-1",
		Endpoint:     "https://svc.amazonaws.com",
	})
	require.Error(t, err)
	var target *UnsupportedOperationError
	require.ErrorAs(t, err, &target)
}
