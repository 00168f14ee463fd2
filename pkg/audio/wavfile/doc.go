// ABOUTME: WAV file package for recording and reading voice audio
// ABOUTME: Wraps go-audio/wav with 16-bit sample helpers
// Package wavfile records decoded SCO audio to WAV files and reads WAV
// files back as 16-bit samples.
//
// A Writer has the same OnPCM method shape as sco.Sink, so it can be
// handed straight to a decoder:
//
//	w, err := wavfile.Create("call.wav", 16000, 1)
//	dec, err := sco.New(sco.MSBCConfig(), prim, w)
//	...
//	err = w.Close()
package wavfile
