package services

import "errors"

var (
	// ErrBadRequest는 보고서 페이로드가 유효하지 않을 때 반환됩니다.
	ErrBadRequest = errors.New("bad request")
	// ErrDeviceNotFound는 라이브 레지스트리에 디바이스가 없을 때 반환됩니다.
	ErrDeviceNotFound = errors.New("device not found")
	// ErrStoreUnavailable은 이력 저장소가 초기화되지 않았거나 DB에 연결할 수 없을 때 반환됩니다.
	ErrStoreUnavailable = errors.New("history store unavailable")
	// ErrWriteFailed는 이력 기록 실패를 감쌉니다.
	ErrWriteFailed = errors.New("history write failed")
	// ErrQueryFailed는 DB 연결은 정상이지만 이력 조회가 실패했을 때 반환됩니다.
	ErrQueryFailed = errors.New("history query failed")
	// ErrLookupFailed는 IP 위치 조회 실패를 감쌉니다.
	ErrLookupFailed = errors.New("geolocation lookup failed")
)
