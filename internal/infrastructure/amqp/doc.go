// Package amqp provides a RabbitMQ record transport for batterygen.
//
// Records are published persistent, with publisher confirms, to the
// configured exchange using the topic as routing key. Bind a queue with
// that routing key (or "#" on a topic exchange) to consume them.
package amqp
