// Package playback owns what plays and in which order: the durable [Queue], the persisted
// transport [Settings] and the [Controller] that fetches tracks through the dispatcher and
// hands them to a [Player].
package playback
