//go:build darwin

package permissions

/*
#cgo LDFLAGS: -framework AVFoundation
#import <AVFoundation/AVFoundation.h>

int checkMicrophonePermission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

void requestMicrophonePermission() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {}];
}
*/
import "C"

import "fmt"

const (
	PermissionNotDetermined = 0
	PermissionRestricted    = 1
	PermissionDenied        = 2
	PermissionAuthorized    = 3
)

// CheckMicrophone returns the current microphone permission status
func CheckMicrophone() (int, error) {
	status := int(C.checkMicrophonePermission())
	return status, nil
}

// RequestMicrophone triggers the system microphone permission dialog
func RequestMicrophone() error {
	C.requestMicrophonePermission()
	return nil
}

// EnsureMicrophone checks microphone access, prompting once if the user
// has never been asked.
func EnsureMicrophone() error {
	status, _ := CheckMicrophone()
	if status != PermissionAuthorized {
		RequestMicrophone()
		return fmt.Errorf("microphone permission not granted")
	}
	return nil
}
