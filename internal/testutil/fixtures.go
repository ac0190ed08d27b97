package testutil

// SigV4TestVector holds one of the AWS public SigV4 test vectors used to
// ground the signer's unit tests (spec §8 "seeded from AWS public test
// vectors").
type SigV4TestVector struct {
	Name            string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Service         string
	Date            string // YYYYMMDDTHHMMSSZ
	Method          string
	URL             string
	ExpectedSig     string
}

// IAMListUsersVector is spec §8 scenario 1: the canonical AWS
// documentation example for signing a query-protocol GET request.
func IAMListUsersVector() SigV4TestVector {
	return SigV4TestVector{
		Name:            "iam-list-users",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Region:          "us-east-1",
		Service:         "iam",
		Date:            "20150830T123600Z",
		Method:          "GET",
		URL:             "https://iam.amazonaws.com/?Action=ListUsers&Version=2010-05-08",
		ExpectedSig:     "5d672d79c15b13162d9279b0855cfba6789a8edb4c82c400e06b5924a6f2b5d7",
	}
}

// S3PresignedGetVector is spec §8 scenario 2: a presigned GET valid for
// 86400 seconds against the same credentials as IAMListUsersVector.
func S3PresignedGetVector() SigV4TestVector {
	return SigV4TestVector{
		Name:            "s3-presigned-get",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY",
		Region:          "us-east-1",
		Service:         "s3",
		Date:            "20130524T000000Z",
		Method:          "GET",
		URL:             "https://examplebucket.s3.amazonaws.com/test.txt",
		ExpectedSig:     "aeeed9bbccd4d02ee5c0109b86d86835f995330da4c265957d157751f604d404",
	}
}

// RestXMLErrorBody is spec §8 scenario 6: a 400 response classified as
// AWSClientError.
func RestXMLErrorBody() []byte {
	return []byte(`<Error><Code>NoSuchBucket</Code><Message>bk</Message></Error>`)
}

// HALEmbeddedItemsResponse is spec §8 scenario 5: a hal+json response with
// a two-element "_embedded.items" relation, each carrying a self link.
func HALEmbeddedItemsResponse() []byte {
	return []byte(`{
		"count": 2,
		"_embedded": {
			"items": [
				{"name": "first", "_links": {"self": {"href": "/items/1"}}},
				{"name": "second", "_links": {"self": {"href": "/items/2"}}}
			]
		},
		"_links": {"self": {"href": "/items"}}
	}`)
}
