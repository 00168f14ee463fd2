// ABOUTME: SCO decode pipeline package
// ABOUTME: Frame assembly, H2 resynchronization, decode orchestration and concealment
// Package sco recovers continuous PCM audio from a Bluetooth SCO/eSCO byte
// stream.
//
// Bytes arrive in chunks of any size through Decoder.Push. They are
// accumulated into candidate frames, aligned on the mSBC H2 header when the
// stream uses header-synchronized framing, and handed to a FrameDecoder
// supplied by the caller. Frames that are flagged by the transport, look
// like link fill (long zero runs), fail to decode or go missing entirely are
// replaced by concealed audio from package plc, so the Sink always receives
// one frame of PCM per frame interval.
//
// Example:
//
//	dec, err := sco.New(sco.CVSDConfig(), sco.NewPCMDecoder(8000, 60),
//	    sco.SinkFunc(func(pcm []int16, n, ch, rate int) {
//	        out.Write(pcm[:n])
//	    }))
//	if err != nil {
//	    return err
//	}
//	for pkt := range packets {
//	    if err := dec.Push(pkt.Payload, pkt.Status != 0); err != nil {
//	        return err
//	    }
//	}
//
// A Decoder is not safe for concurrent use. Independent streams use
// independent Decoders.
package sco
