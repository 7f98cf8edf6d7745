package util

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/minio/minio-go/v7"
)

func GetProjectDirectoryPath(projectId string) string {
	return fmt.Sprintf("proyectos/%s", projectId)
}

func ToProjectDirectoryPath(projectId string, filename string) string {
	return filepath.Join(GetProjectDirectoryPath(projectId), filepath.Base(filename))
}

func GetTemplateDirectoryPath(projectId string) string {
	return GetProjectDirectoryPath(projectId) + "/plantillas"
}

func ToTemplateDirectoryPath(projectId string, filename string) string {
	return filepath.Join(GetTemplateDirectoryPath(projectId), filepath.Base(filename))
}

// Rendered documents are grouped by session under the owning project.
func GetEmissionDirectoryPath(projectId, sesionId string) string {
	return fmt.Sprintf("%s/emisiones/%s", GetProjectDirectoryPath(projectId), sesionId)
}

func ToEmissionDirectoryPath(projectId, sesionId string, filename string) string {
	return filepath.Join(GetEmissionDirectoryPath(projectId, sesionId), filepath.Base(filename))
}

func createBucketIfNotExists(s3 *minio.Client, bucketName string) error {
	exists, err := s3.BucketExists(context.Background(), bucketName)
	if err != nil {
		return err
	}

	if !exists {
		err = s3.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return err
		}
	}

	return nil
}

type FileUploadOptions struct {
	// Add a prefix to the file name
	// For example, if the file name is "data.csv" and the prefix is "proyectos/123",
	// the resulting name will be "proyectos/123/data.csv"
	DirectoryPath string
	UniquePrefix  bool
	Bucket        string
	S3            *minio.Client
}

func UploadFileToS3ByFileHeader(fileHeader *multipart.FileHeader, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileName := prepareFileName(fileHeader.Filename, fuo)

	info, err := fuo.S3.PutObject(
		context.Background(),
		fuo.Bucket,
		fileName,
		file,
		fileHeader.Size,
		minio.PutObjectOptions{
			ContentType: fileHeader.Header.Get("Content-Type"),
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// uploads a file from a local path to S3
func UploadFileToS3ByPath(path string, fuo *FileUploadOptions) (minio.UploadInfo, error) {
	if err := createBucketIfNotExists(fuo.S3, fuo.Bucket); err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to create bucket: %w", err)
	}

	fileName := prepareFileName(filepath.Base(path), fuo)

	contentType, err := detectContentType(path)
	if err != nil {
		return minio.UploadInfo{}, err
	}

	info, err := fuo.S3.FPutObject(
		context.Background(),
		fuo.Bucket,
		fileName,
		path,
		minio.PutObjectOptions{
			ContentType: contentType,
		},
	)
	if err != nil {
		return minio.UploadInfo{}, fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return info, nil
}

// DownloadFileFromS3 fetches an object to a local path.
func DownloadFileFromS3(objectName, localPath, bucket string, s3 *minio.Client) error {
	return s3.FGetObject(context.Background(), bucket, objectName, localPath, minio.GetObjectOptions{})
}

// OpenS3Object streams an object, e.g. to re-hash an archived document.
func OpenS3Object(objectName, bucket string, s3 *minio.Client) (io.ReadCloser, error) {
	obj, err := s3.GetObject(context.Background(), bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectName, err)
	}
	return obj, nil
}

// Generates the final file name with uniqueness and prefix
func prepareFileName(originalName string, fuo *FileUploadOptions) string {
	fileName := originalName

	if fuo.UniquePrefix {
		fileName = AddUniquePrefixToFileName(fileName)
	}

	if fuo.DirectoryPath != "" {
		fileName = filepath.Join(fuo.DirectoryPath, fileName)
	}

	return fileName
}

func detectContentType(path string) (string, error) {
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType != "" {
		return contentType, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return http.DetectContentType(buf[:n]), nil
}
