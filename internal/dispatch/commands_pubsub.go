package dispatch

import (
	"github.com/mertssmnoglu/redisfx/internal/resp"
)

// cmdSubscribe handles SUBSCRIBE channel [channel...], emitting one
// "subscribe" ack frame per channel (spec.md §4.10).
func cmdSubscribe(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	for _, a := range args {
		ch := string(a)

		d.Engine.Subscribe(sess.Sub, ch)

		if err := writeSubAck(out, "subscribe", ch, true, d.Engine.SubscriberCount(sess.Sub)); err != nil {
			return err
		}
	}

	return nil
}

// cmdUnsubscribe handles UNSUBSCRIBE [channel...]; no arguments means
// "every channel this connection is subscribed to".
func cmdUnsubscribe(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	channels := byteArgsToStrings(args)
	if len(channels) == 0 {
		channels = d.Engine.SubscriberChannels(sess.Sub)
	}

	if len(channels) == 0 {
		return writeSubAck(out, "unsubscribe", "", false, d.Engine.SubscriberCount(sess.Sub))
	}

	for _, ch := range channels {
		d.Engine.Unsubscribe(sess.Sub, ch)

		if err := writeSubAck(out, "unsubscribe", ch, true, d.Engine.SubscriberCount(sess.Sub)); err != nil {
			return err
		}
	}

	return nil
}

func cmdPSubscribe(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	for _, a := range args {
		pattern := string(a)

		d.Engine.PSubscribe(sess.Sub, pattern)

		if err := writeSubAck(out, "psubscribe", pattern, true, d.Engine.SubscriberCount(sess.Sub)); err != nil {
			return err
		}
	}

	return nil
}

func cmdPUnsubscribe(d *Dispatcher, sess *Session, args [][]byte, out *resp.Writer) error {
	patterns := byteArgsToStrings(args)
	if len(patterns) == 0 {
		patterns = d.Engine.SubscriberPatterns(sess.Sub)
	}

	if len(patterns) == 0 {
		return writeSubAck(out, "punsubscribe", "", false, d.Engine.SubscriberCount(sess.Sub))
	}

	for _, p := range patterns {
		d.Engine.PUnsubscribe(sess.Sub, p)

		if err := writeSubAck(out, "punsubscribe", p, true, d.Engine.SubscriberCount(sess.Sub)); err != nil {
			return err
		}
	}

	return nil
}

// cmdPublish delivers payload to every direct and pattern subscriber of
// the channel, returning the receiver count (spec.md §4.10).
func cmdPublish(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	n := d.Engine.Publish(string(args[0]), args[1])

	return out.WriteInteger(int64(n))
}

func cmdPubSub(d *Dispatcher, _ *Session, args [][]byte, out *resp.Writer) error {
	switch upper(args[0]) {
	case "CHANNELS":
		pattern := ""
		if len(args) > 1 {
			pattern = string(args[1])
		}

		return writeStringArray(out, d.Engine.PubSubChannels(pattern))

	case "NUMSUB":
		counts := d.Engine.PubSubNumSub(byteArgsToStrings(args[1:])...)

		if err := out.WriteArrayHeader(len(args[1:]) * 2); err != nil {
			return err
		}

		for _, a := range args[1:] {
			ch := string(a)

			if err := out.WriteBulkStringFrom(ch); err != nil {
				return err
			}

			if err := out.WriteInteger(int64(counts[ch])); err != nil {
				return err
			}
		}

		return nil

	case "NUMPAT":
		return out.WriteInteger(int64(d.Engine.PubSubNumPat()))

	default:
		return out.WriteError("ERR Unknown PUBSUB subcommand or wrong number of arguments")
	}
}

func byteArgsToStrings(args [][]byte) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = string(a)
	}

	return out
}
