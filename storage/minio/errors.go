package minio

import (
	"github.com/minio/minio-go/v7"

	"github.com/pure-golang/zeptomail/storage"
)

// toStorageError classifies a minio error by its S3 error code.
func toStorageError(err error, bucket, key string) error {
	if err == nil {
		return nil
	}

	se := &storage.StorageError{
		Code:    storage.CodeInternalError,
		Message: "internal storage error",
		Err:     err,
		Bucket:  bucket,
		Key:     key,
	}

	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		se.Code, se.Message = storage.CodeNotFound, "object not found"
	case "NoSuchBucket":
		se.Code, se.Message = storage.CodeBucketNotFound, "bucket not found"
	case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		se.Code, se.Message = storage.CodeAccessDenied, "access denied"
	}

	return se
}
