// Package playback owns the single player of the process.
//
// The [Orchestrator] couples a [queue.Queue] to an [Output] (the media element). The output is re-pointed
// only when the active track's audio source changes, so editing the queue around the playing track never
// interrupts it. When a track ends the queue advances and the next track is loaded and played.
//
// One Orchestrator is built per process with [New] and handed to every surface that needs to drive
// playback. Surfaces learn about changes they did not cause (auto-advance, a failed play) through
// [Orchestrator.Subscribe].
package playback
