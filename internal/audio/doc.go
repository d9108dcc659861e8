// Package audio plays tracks through the system speaker.
//
// [Speaker] implements playback.Output with gopxl/beep. Sources are fetched whole into memory (an HTTP(S)
// URL or a local file) and decoded as MP3 or WAV. Builds without native audio support get a Speaker whose
// Load and Play return [shared.ErrAudioUnavailable]; [Available] reports which one was compiled in.
package audio
